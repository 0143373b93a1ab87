package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Logger, out)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"config", cfg,
	)

	tracer, err := observability.InitTracing(cfg.Telemetry, out)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	defaultRange, err := cfg.Data.DefaultRange()
	if err != nil {
		return err
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithDefaultRange(defaultRange),
	}
	if cfg.Data.CacheDir != "" {
		opts = append(opts, services.WithCache(dataset.NewCache(cfg.Data.CacheDir)))
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.EnableMetrics {
		metrics = observability.NewMetrics()
		opts = append(opts, services.WithObserver(metrics))
	}

	analytics := services.NewAnalytics(opts...)
	if err := load(ctx, analytics, cfg.Data, logger); err != nil {
		return err
	}

	srv := server.NewServer(analytics, logger, server.Options{
		Version:   version,
		Metrics:   metrics,
		ExportBOM: cfg.Data.ExportBOM,
	})

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(srv, cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("tracing", tracer.Shutdown)

	if err := gracefulServer.Run(ctx); err != nil {
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

// load reads the spreadsheet once at startup. A malformed source stops the process.
func load(ctx context.Context, analytics *services.Analytics, cfg config.DataConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromFile(ctx, cfg.File); err != nil {
		var loadErr *dataset.LoadError
		if stderrors.As(err, &loadErr) {
			logger.Error("sales data is malformed",
				"source", loadErr.Source,
				"row", loadErr.Row,
				"column", loadErr.Column,
				"error", loadErr.Err,
			)
		}
		return fmt.Errorf("load sales data: %w", err)
	}

	logger.Info("sales data loaded", "file", cfg.File, "duration", time.Since(start))
	return nil
}

func newHandler(srv http.Handler, cfg *config.Config, logger *slog.Logger) http.Handler {
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(logger),
		middleware.TrustedProxy(cfg.Security),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}
