package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-drop/internal/blob"
	"file-drop/internal/config"
	"file-drop/internal/db"
	"file-drop/internal/index"
	"file-drop/internal/logging"
	"file-drop/internal/server"
	"file-drop/internal/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "service=backend msg=%q err=%v\n", "config_invalid", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.JSONLogs()).With("service", "backend")
	logging.Setup(logger)

	// Run migrations
	logger.Info("running_migrations")
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("migration_failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations_complete")

	// Database
	dbConn, dialect, err := db.OpenDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_connect_failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()
	idx := index.New(dbConn, dialect)

	// Blob storage
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	blobs, err := newBlobStore(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("storage_init_failed", "storage", cfg.Storage, "err", err)
		os.Exit(1)
	}

	svc, err := transfer.NewService(blobs, idx, cfg.BaseURL)
	if err != nil {
		logger.Error("service_init_failed", "err", err)
		os.Exit(1)
	}

	build := server.BuildInfo{Version: cfg.Version, Commit: cfg.Commit}

	var metrics *server.Metrics
	if cfg.Metrics {
		metrics = server.NewMetrics(build)
	}

	srv := server.New(server.Config{
		Addr:    cfg.Addr,
		Service: svc,
		Checks: []server.HealthCheck{
			{Name: "database", Pinger: idx},
			{Name: "storage", Pinger: blobs},
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
		TrustProxy:     cfg.TrustProxy,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		Metrics:        metrics,
		Build:          build,
		Logger:         logger,
	})

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting",
			"addr", cfg.Addr,
			"base_url", cfg.BaseURL,
			"storage", cfg.Storage,
			"version", build.Version,
			"commit", build.Commit,
		)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting_down", "signal", sig.String())
		// Give in-flight requests 5 seconds to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown_error", "err", err)
			os.Exit(1)
		}
		logger.Info("shutdown_complete")
	case err := <-errCh:
		if err != nil {
			logger.Error("server_error", "err", err)
			os.Exit(1)
		}
	}
}

// blobStore is what the service and the health checks need from storage.
type blobStore interface {
	transfer.BlobStore
	server.Pinger
}

// newBlobStore builds the backend selected by FD_STORAGE.
func newBlobStore(ctx context.Context, cfg config.Config) (blobStore, error) {
	switch cfg.Storage {
	case "fs":
		return blob.NewFSStore(cfg.FilePath)
	case "minio":
		return blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
