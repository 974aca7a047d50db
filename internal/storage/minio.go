package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// MinioConfig holds the connection settings for an S3-compatible backend.
type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Prefix     string // object key prefix, e.g. "reports/"
	PublicBase string // browser-accessible base URL of the bucket
	UseSSL     bool
}

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
// PutObject only publishes the object once the upload completes, which gives
// the same all-or-nothing visibility as the local rename.
type MinioStorage struct {
	client     *minio.Client
	bucket     string
	prefix     string
	publicBase string
}

// NewMinioStorage creates a MinIO client, ensures the bucket exists with a public-read
// policy, and returns a ready-to-use MinioStorage.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		log.WithField("bucket", cfg.Bucket).Info("storage: created bucket")
	}

	if err := client.SetBucketPolicy(ctx, cfg.Bucket, publicReadPolicy(cfg.Bucket, cfg.Prefix)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return newMinioStorage(client, cfg), nil
}

func newMinioStorage(client *minio.Client, cfg MinioConfig) *MinioStorage {
	return &MinioStorage{
		client:     client,
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}
}

// Save streams reader to the bucket under prefix+key. size must be the exact
// byte count (pass -1 only if the size is genuinely unknown).
func (s *MinioStorage) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.prefix+key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/uploads/reports/7_1700000000_x.png"
func (s *MinioStorage) PublicURL(key string) string {
	return s.publicBase + "/" + s.prefix + key
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET
// on every object under prefix.
func publicReadPolicy(bucket, prefix string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/%s*", bucket, prefix),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
