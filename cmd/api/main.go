//	@title			Hofra Ingest API
//	@version		1.0
//	@description	Report image ingestion for the Hofra app.
//
//	@host		localhost:8080
//	@BasePath	/api/v1

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/hofra/ingest/internal/config"
	"github.com/hofra/ingest/internal/metrics"
	appMiddleware "github.com/hofra/ingest/internal/middleware"
	"github.com/hofra/ingest/internal/report"
	"github.com/hofra/ingest/internal/response"
	"github.com/hofra/ingest/internal/storage"

	_ "github.com/hofra/ingest/docs/swagger"
)

func main() {
	cfg := config.Load()
	log := setupLogger(cfg)

	store, err := newStore(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("storage init failed")
	}

	// Wire dependencies: storage → service → handler
	rec := metrics.New()
	svc := report.NewService(
		report.NewValidator(cfg.MaxFileSize, cfg.AllowedTypes),
		report.NewNamer(),
		store,
		cfg.UploadPublicPath,
		rec,
		log,
	)
	reportHandler := report.NewHandler(svc, report.HandlerOptions{
		MaxRequestSize:      cfg.MaxRequestSize,
		MultipartMemory:     cfg.MultipartMemory,
		TrustForwardedProto: cfg.TrustForwardedProto,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(reportHandler, rec, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"env":      cfg.AppEnv,
			"driver":   cfg.StorageDriver,
			"max_file": humanize.IBytes(uint64(cfg.MaxFileSize)),
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}

	log.Info("server stopped")
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverLocal:
		return storage.NewLocalStorage(afero.NewOsFs(), cfg.UploadDir, cfg.UploadPublicPath), nil
	case config.DriverMinio:
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:   cfg.StorageEndpoint,
			AccessKey:  cfg.StorageAccessKey,
			SecretKey:  cfg.StorageSecretKey,
			Bucket:     cfg.StorageBucket,
			Prefix:     "reports/",
			PublicBase: cfg.StoragePublicBase,
			UseSSL:     cfg.StorageUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func newRouter(reportHandler *report.Handler, rec *metrics.Recorder, log logrus.FieldLogger) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", rec.Handler())

	// Swagger UI, served at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Legacy single-script path used by older app builds.
	r.Post("/upload", reportHandler.Upload)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reports/upload", reportHandler.Upload)
	})

	return r
}
