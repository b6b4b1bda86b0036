package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/telhawk-systems/logsink/internal/config"
	"github.com/telhawk-systems/logsink/internal/handlers"
	"github.com/telhawk-systems/logsink/internal/logging"
	"github.com/telhawk-systems/logsink/internal/queue"
	"github.com/telhawk-systems/logsink/internal/ratelimit"
	"github.com/telhawk-systems/logsink/internal/repository"
	"github.com/telhawk-systems/logsink/internal/server"
	"github.com/telhawk-systems/logsink/internal/service"
	"github.com/telhawk-systems/logsink/internal/worker"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("logsink"))
	logging.SetDefault(logger)

	slog.Info("Starting logsink service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.Int("queue_capacity", cfg.Ingestion.QueueCapacity),
		slog.String("ingest_level", cfg.Ingestion.Level),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	connString := cfg.Database.ConnString()

	// Run database migrations; the logs table must exist before the
	// writer starts.
	slog.Info("Running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database migrations completed")

	// Initialize repository
	repo, err := repository.NewPostgresRepository(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	// Initialize rate limiter
	var rateLimiter ratelimit.RateLimiter = &ratelimit.NoOpRateLimiter{}
	if cfg.Redis.Enabled && cfg.Ingestion.RateLimitEnabled {
		limiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.Ingestion.RateLimitRequests,
			cfg.Ingestion.RateLimitWindow,
		)
		if err != nil {
			slog.Warn("Failed to initialize Redis rate limiter, continuing without rate limiting",
				logging.Error(err))
		} else {
			rateLimiter = limiter
			slog.Info("Rate limiting enabled",
				slog.Int("requests", cfg.Ingestion.RateLimitRequests),
				slog.Duration("window", cfg.Ingestion.RateLimitWindow),
			)
		}
	}
	defer rateLimiter.Close()

	// Wire the queue, writer and ingest pipeline
	q := queue.New(cfg.Ingestion.QueueCapacity)

	writer := worker.NewWriter(q, repo, logger)
	writer.Start()

	ingestService := service.NewIngestService(q, cfg.Ingestion.Level, logger)
	handler := handlers.NewIngestHandler(ingestService, rateLimiter, logger, cfg.Ingestion.MaxBatchBytes)
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("logsink listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	// Stop accepting requests and let in-flight batches finish enqueueing.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", logging.Error(err))
	}

	// No producers remain; close the queue and wait for the writer to
	// drain the buffered records into the store.
	q.Close()
	slog.Info("Draining queue", logging.QueueLen(q.Len()))
	if !writer.Wait(cfg.Ingestion.DrainTimeout) {
		slog.Error("Drain timeout exceeded, buffered records lost", logging.QueueLen(q.Len()))
	}

	repo.Close()
	slog.Info("All buffered records flushed, server stopped")
}
