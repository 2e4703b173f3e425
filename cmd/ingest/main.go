// Package main loads the client CSV exports into PostgreSQL.
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
)

func main() {
	app.LoadEnv()

	// Parse flags
	dataDir := flag.String("data-dir", app.Env("DATA_DIR", "data"), "Directory with clients.csv and client_<n>_*_3m.csv files")
	postgresDSN := flag.String("postgres-dsn", app.Env("POSTGRES_DSN", ""), "PostgreSQL connection string")
	migrate := flag.Bool("migrate", true, "Apply embedded migrations before loading")
	dryRun := flag.Bool("dry-run", false, "Parse into memory stores only and report counts")
	logLevel := flag.String("log-level", app.Env("LOG_LEVEL", "info"), "Log level")
	logFormat := flag.String("log-format", app.Env("LOG_FORMAT", "auto"), "Log format: auto, console or json")
	flag.Parse()

	log, err := app.NewLogger(*logLevel, *logFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	log = log.With().Str("component", "ingest").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals; a second signal exits immediately
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling ingestion")
		cancel()
		<-sigCh
		os.Exit(1)
	}()

	start := time.Now()
	stats, err := run(ctx, log, *dataDir, *postgresDSN, *migrate, *dryRun)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("ingestion cancelled")
		} else {
			log.Error().Err(err).Msg("ingestion failed")
		}
		os.Exit(1)
	}

	log.Info().
		Int("files", stats.Files).
		Int("clients", stats.Clients).
		Int("transactions", stats.Transactions).
		Int("transfers", stats.Transfers).
		Int("skipped_rows", stats.SkippedRows).
		Dur("duration", time.Since(start)).
		Msg("ingestion complete")
}

func run(ctx context.Context, log zerolog.Logger, dataDir, postgresDSN string, migrate, dryRun bool) (ingest.Stats, error) {
	if !dryRun && postgresDSN == "" {
		return ingest.Stats{}, errors.New("-postgres-dsn is required unless -dry-run is set")
	}

	stores, err := app.OpenStores(ctx, app.StoreConfig{
		UseMemory:   dryRun,
		PostgresDSN: postgresDSN,
		MaxConns:    4,
		Migrate:     migrate,
	}, log)
	if err != nil {
		return ingest.Stats{}, err
	}
	defer stores.Close()

	return ingest.NewLoader(stores.Clients, stores.Transactions, stores.Transfers, log).LoadDir(ctx, dataDir)
}
