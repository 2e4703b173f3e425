// Package main provides the recommendation service:
// - Pipeline (scheduled): features → signals → benefits → ranking
// - Reporting (after each run): recommendations CSV, debug CSVs, REPORT.md
// - HTTP: health, metrics, status, on-demand runs and per-client results
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bank-personalization/internal/app"
	"bank-personalization/internal/ingest"
	"bank-personalization/internal/observability"
)

func main() {
	// Load .env file if exists
	app.LoadEnv()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", app.Env("POSTGRES_DSN", ""), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", app.Env("CLICKHOUSE_DSN", ""), "ClickHouse connection string (optional)")
	dataDir := flag.String("data-dir", app.Env("DATA_DIR", ""), "CSV directory for in-memory mode")
	migrate := flag.Bool("migrate", true, "Apply embedded migrations on start")
	policyPath := flag.String("policy", app.Env("POLICY_FILE", ""), "Policy YAML file (default: built-in policy)")
	windowStart := flag.String("window-start", app.Env("WINDOW_START", ""), "Fixed window start YYYY-MM-DD (default: previous full months)")
	windowMonths := flag.Int("window-months", app.EnvInt("WINDOW_MONTHS", 3), "Window length in months")
	workers := flag.Int("workers", app.EnvInt("PIPELINE_WORKERS", 4), "Clients processed concurrently")
	retries := flag.Int("retries", app.EnvInt("PIPELINE_RETRIES", 3), "Retries per storage call after the first attempt")
	runInterval := flag.Duration("run-interval", app.EnvDuration("RUN_INTERVAL", 24*time.Hour), "Scheduled run interval (0 disables)")
	notify := flag.Bool("notify", app.Env("NOTIFY_ENABLED", "") == "true", "Generate a notification for every recommendation")
	outputDir := flag.String("output-dir", app.Env("OUTPUT_DIR", ""), "Write report files after each run")
	httpAddr := flag.String("http-addr", app.Env("HTTP_ADDR", ":8080"), "HTTP listen address")
	logLevel := flag.String("log-level", app.Env("LOG_LEVEL", "info"), "Log level")
	logFormat := flag.String("log-format", app.Env("LOG_FORMAT", "auto"), "Log format: auto, console or json")
	flag.Parse()

	logger, err := app.NewLogger(*logLevel, *logFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Validate required flags
	if *postgresDSN == "" && *dataDir == "" {
		logger.Fatal().Msg("-postgres-dsn is required (use -data-dir for in-memory mode)")
	}

	pol, err := app.LoadPolicy(*policyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load policy")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, app.StoreConfig{
		UseMemory:     *dataDir != "",
		PostgresDSN:   *postgresDSN,
		ClickhouseDSN: *clickhouseDSN,
		MaxConns:      int32(*workers + 4),
		Migrate:       *migrate,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create stores")
	}
	defer stores.Close()

	if *dataDir != "" {
		stats, err := ingest.NewLoader(stores.Clients, stores.Transactions, stores.Transfers, logger).LoadDir(ctx, *dataDir)
		if err != nil {
			stores.Close()
			logger.Fatal().Err(err).Msg("load data")
		}
		logger.Info().Int("clients", stats.Clients).Int("skipped_rows", stats.SkippedRows).Msg("data loaded")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := observability.NewMetrics(observability.DefaultNamespace, registry)

	notifier, closeNotifier, err := app.NewNotifier(ctx, app.NotifierConfigFromEnv(*notify), m, logger)
	if err != nil {
		stores.Close()
		logger.Fatal().Err(err).Msg("create notifier")
	}
	defer closeNotifier()

	server := NewServer(ctx, Config{
		Policy:       pol,
		WindowStart:  *windowStart,
		WindowMonths: *windowMonths,
		Workers:      *workers,
		MaxRetries:   uint64(max(*retries, 0)),
		RunInterval:  *runInterval,
		OutputDir:    *outputDir,
	}, stores, notifier, m, logger)

	httpServer := &http.Server{
		Addr:              *httpAddr,
		Handler:           server.Router(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", *httpAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	// Handle shutdown signals
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
			cancel()
		case <-done:
			return
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn().Msg("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = httpServer.Shutdown(shutdownCtx)
	shutdownCancel()
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server error")
		return
	}
	logger.Info().Msg("shutdown complete")
}
