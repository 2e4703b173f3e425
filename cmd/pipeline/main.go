// Package main runs one recommendation batch:
// features → signals → benefits → ranking → persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bank-personalization/internal/app"
	"bank-personalization/internal/ingest"
	"bank-personalization/internal/orchestrator"
	"bank-personalization/internal/reporting"
	"bank-personalization/internal/verification"
)

func main() {
	app.LoadEnv()

	// Parse flags
	dataDir := flag.String("data-dir", app.Env("DATA_DIR", ""), "CSV directory to load into memory stores (memory mode)")
	postgresDSN := flag.String("postgres-dsn", app.Env("POSTGRES_DSN", ""), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", app.Env("CLICKHOUSE_DSN", ""), "ClickHouse connection string (optional analytics sink)")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before the run")
	policyPath := flag.String("policy", app.Env("POLICY_FILE", ""), "Policy YAML file (default: built-in policy)")
	windowStart := flag.String("window-start", app.Env("WINDOW_START", ""), "Window start date YYYY-MM-DD (default: previous full months)")
	windowMonths := flag.Int("window-months", app.EnvInt("WINDOW_MONTHS", 3), "Window length in months")
	workers := flag.Int("workers", app.EnvInt("PIPELINE_WORKERS", 4), "Clients processed concurrently")
	retries := flag.Int("retries", app.EnvInt("PIPELINE_RETRIES", 3), "Retries per storage call after the first attempt")
	notify := flag.Bool("notify", false, "Generate a notification for every recommendation")
	verify := flag.Bool("verify", false, "Recompute every client after the run and fail on divergence")
	outputDir := flag.String("output-dir", "", "Write report files to this directory after the run")
	logLevel := flag.String("log-level", app.Env("LOG_LEVEL", "info"), "Log level")
	logFormat := flag.String("log-format", app.Env("LOG_FORMAT", "auto"), "Log format: auto, console or json")
	flag.Parse()

	log, err := app.NewLogger(*logLevel, *logFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling run")
		cancel()
	}()

	if err := run(ctx, log, config{
		dataDir:       *dataDir,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		migrate:       *migrate,
		policyPath:    *policyPath,
		windowStart:   *windowStart,
		windowMonths:  *windowMonths,
		workers:       *workers,
		retries:       *retries,
		notify:        *notify,
		verify:        *verify,
		outputDir:     *outputDir,
	}); err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		os.Exit(1)
	}
}

type config struct {
	dataDir       string
	postgresDSN   string
	clickhouseDSN string
	migrate       bool
	policyPath    string
	windowStart   string
	windowMonths  int
	workers       int
	retries       int
	notify        bool
	verify        bool
	outputDir     string
}

func run(ctx context.Context, log zerolog.Logger, cfg config) error {
	if cfg.dataDir == "" && cfg.postgresDSN == "" {
		return errors.New("either -data-dir or -postgres-dsn is required")
	}

	window, err := app.ParseWindow(cfg.windowStart, cfg.windowMonths, time.Now())
	if err != nil {
		return err
	}
	pol, err := app.LoadPolicy(cfg.policyPath)
	if err != nil {
		return err
	}

	stores, err := app.OpenStores(ctx, app.StoreConfig{
		UseMemory:     cfg.dataDir != "",
		PostgresDSN:   cfg.postgresDSN,
		ClickhouseDSN: cfg.clickhouseDSN,
		MaxConns:      int32(cfg.workers + 2),
		Migrate:       cfg.migrate,
	}, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	if cfg.dataDir != "" {
		stats, err := ingest.NewLoader(stores.Clients, stores.Transactions, stores.Transfers, log).LoadDir(ctx, cfg.dataDir)
		if err != nil {
			return fmt.Errorf("load %s: %w", cfg.dataDir, err)
		}
		log.Info().
			Int("clients", stats.Clients).
			Int("transactions", stats.Transactions).
			Int("transfers", stats.Transfers).
			Int("skipped_rows", stats.SkippedRows).
			Msg("data loaded")
	}

	notifier, closeNotifier, err := app.NewNotifier(ctx, app.NotifierConfigFromEnv(cfg.notify), nil, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	orch := orchestrator.New(orchestrator.Options{
		Clients:      stores.Clients,
		Transactions: stores.Transactions,
		Transfers:    stores.Transfers,
		Holdings:     stores.Holdings,
		Results:      stores.Results,
		Runs:         stores.Runs,
		Catalog:      stores.Catalog,
		Analytics:    stores.Analytics,
		Notifier:     notifier,
		Policy:       pol,
		Window:       window,
		Workers:      cfg.workers,
		MaxRetries:   uint64(max(cfg.retries, 0)),
		Logger:       log,
	})

	result, err := orch.Run(ctx)
	if result != nil {
		log.Info().
			Str("run_id", result.RunID).
			Str("status", string(result.Status)).
			Str("window", result.Window.String()).
			Int("clients", result.ClientsTotal).
			Int("succeeded", result.ClientsSucceeded).
			Int("failed", result.ClientsFailed).
			Int("no_data", result.ClientsNoData).
			Int("recommendations", result.Recommendations).
			Str("digest", result.ResultsDigest).
			Dur("duration", result.Duration).
			Msg("run finished")
	}
	if err != nil {
		return err
	}

	if cfg.verify {
		if err := verifyResults(ctx, log, verification.NewVerifier(stores.Clients, stores.Results, orch)); err != nil {
			return err
		}
	}

	if cfg.outputDir == "" {
		return nil
	}
	catalog, err := stores.Catalog.GetCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	report, err := reporting.NewGenerator(stores.Clients, stores.Holdings, stores.Results, stores.Runs, catalog).Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	paths, err := reporting.WriteFiles(report, cfg.outputDir)
	if err != nil {
		return err
	}
	log.Info().Strs("files", paths).Msg("report written")
	return nil
}

func verifyResults(ctx context.Context, log zerolog.Logger, v *verification.Verifier) error {
	report, err := v.VerifyAll(ctx)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	for _, r := range report.Results {
		for _, d := range r.Divergences {
			log.Warn().Int64("client_code", r.ClientCode).Str("divergence", d.String()).Msg("recommendation diverged")
		}
	}
	log.Info().
		Int("matched", report.MatchedClients).
		Int("divergent", report.DivergentClients).
		Int("skipped", report.SkippedClients).
		Msg("verification finished")
	if report.DivergentClients > 0 {
		return fmt.Errorf("verify: %d clients diverged", report.DivergentClients)
	}
	return nil
}
