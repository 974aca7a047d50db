// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverLocal = "local"
	DriverMinio = "minio"
)

// DefaultAllowedTypes is the MIME allow-list applied when UPLOAD_ALLOWED_TYPES is unset.
var DefaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Config holds all runtime configuration for the service.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	// Upload policy
	UploadDir           string // filesystem root for the local driver
	UploadPublicPath    string // root-relative path the external web server serves UploadDir at
	MaxFileSize         int64
	MaxRequestSize      int64 // bodies above this are cut off by the transport
	MultipartMemory     int64
	AllowedTypes        []string
	TrustForwardedProto bool

	// Object storage (S3-compatible), used when StorageDriver is "minio"
	StorageDriver     string
	StorageEndpoint   string
	StorageAccessKey  string
	StorageSecretKey  string
	StorageBucket     string
	StorageUseSSL     bool
	StoragePublicBase string // browser-accessible base URL, e.g. "http://localhost:9000/uploads"
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, reading from environment")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		UploadDir:           getEnv("UPLOAD_DIR", "uploads/reports"),
		UploadPublicPath:    strings.TrimRight(getEnv("UPLOAD_PUBLIC_PATH", "/uploads/reports"), "/"),
		MaxFileSize:         getBytes("UPLOAD_MAX_FILE_SIZE", 5*humanize.MiByte),
		MaxRequestSize:      getBytes("UPLOAD_MAX_REQUEST_SIZE", 10*humanize.MiByte),
		MultipartMemory:     getBytes("UPLOAD_MULTIPART_MEMORY", humanize.MiByte),
		AllowedTypes:        getList("UPLOAD_ALLOWED_TYPES", DefaultAllowedTypes),
		TrustForwardedProto: getEnv("TRUST_FORWARDED_PROTO", "false") == "true",

		StorageDriver:     getEnv("STORAGE_DRIVER", DriverLocal),
		StorageEndpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:  getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey:  getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:     getEnv("STORAGE_BUCKET", "uploads"),
		StorageUseSSL:     getEnv("STORAGE_USE_SSL", "false") == "true",
		StoragePublicBase: getEnv("STORAGE_PUBLIC_BASE", "http://localhost:9000/uploads"),
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getBytes parses human-readable sizes such as "5MiB" or "800kB".
func getBytes(key string, fallback uint64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return int64(fallback)
	}
	n, err := humanize.ParseBytes(v)
	if err != nil || n == 0 {
		log.WithField("key", key).WithField("value", v).Warn("invalid size, using default")
		return int64(fallback)
	}
	return int64(n)
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
