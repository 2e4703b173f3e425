package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bank-personalization/internal/app"
	"bank-personalization/internal/domain"
	"bank-personalization/internal/notification"
	"bank-personalization/internal/observability"
	"bank-personalization/internal/orchestrator"
	"bank-personalization/internal/policy"
	"bank-personalization/internal/reporting"
)

var errRunInProgress = errors.New("run already in progress")

// Config holds the scheduling and run parameters.
type Config struct {
	Policy        *policy.Policy
	WindowStart   string // empty means the previous full months
	WindowMonths  int
	Workers       int
	MaxRetries    uint64
	RunInterval   time.Duration // zero disables scheduled runs
	OutputDir     string        // empty disables report files
}

// Server runs scheduled batches and serves their results over HTTP.
type Server struct {
	cfg      Config
	stores   *app.Stores
	notifier notification.Generator
	metrics  *observability.Metrics
	logger   zerolog.Logger
	now      func() time.Time

	// baseCtx outlives HTTP requests; runs started over HTTP use it.
	baseCtx context.Context

	// State
	mu         sync.Mutex
	started    time.Time
	running    bool
	lastResult *orchestrator.RunResult
	lastError  string
	lastRunAt  time.Time
	runs       int
}

// NewServer creates a server over stores.
func NewServer(ctx context.Context, cfg Config, stores *app.Stores, notifier notification.Generator, m *observability.Metrics, log zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		stores:   stores,
		notifier: notifier,
		metrics:  m,
		logger:   log.With().Str("component", "server").Logger(),
		now:      time.Now,
		baseCtx:  ctx,
		started:  time.Now(),
	}
}

func (s *Server) newOrchestrator(window domain.Window) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		Clients:      s.stores.Clients,
		Transactions: s.stores.Transactions,
		Transfers:    s.stores.Transfers,
		Holdings:     s.stores.Holdings,
		Results:      s.stores.Results,
		Runs:         s.stores.Runs,
		Catalog:      s.stores.Catalog,
		Analytics:    s.stores.Analytics,
		Notifier:     s.notifier,
		Policy:       s.cfg.Policy,
		Window:       window,
		Workers:      s.cfg.Workers,
		MaxRetries:   s.cfg.MaxRetries,
		Logger:       s.logger,
		Metrics:      s.metrics,
		Now:          s.now,
	})
}

func (s *Server) window() (domain.Window, error) {
	return app.ParseWindow(s.cfg.WindowStart, s.cfg.WindowMonths, s.now())
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.RunInterval <= 0 {
		s.logger.Info().Msg("scheduled runs disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().Dur("interval", s.cfg.RunInterval).Msg("starting run scheduler")

	// Run immediately on start
	s.scheduledRun(ctx)

	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scheduledRun(ctx)
		}
	}
}

func (s *Server) scheduledRun(ctx context.Context) {
	if err := s.tryStart(); err != nil {
		s.logger.Info().Msg("run already in progress, skipping")
		return
	}
	s.execute(ctx)
}

// tryStart marks a run as in progress or returns errRunInProgress.
func (s *Server) tryStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errRunInProgress
	}
	s.running = true
	return nil
}

// execute performs one run. The caller must have won tryStart.
func (s *Server) execute(ctx context.Context) {
	var (
		result *orchestrator.RunResult
		err    error
	)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRunAt = s.now()
		s.runs++
		if result != nil {
			s.lastResult = result
		}
		s.lastError = ""
		if err != nil {
			s.lastError = err.Error()
		}
		s.mu.Unlock()
	}()

	window, err := s.window()
	if err != nil {
		s.logger.Error().Err(err).Msg("invalid window")
		return
	}

	result, err = s.newOrchestrator(window).Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("run failed")
		return
	}
	s.logger.Info().
		Str("run_id", result.RunID).
		Str("status", result.Status).
		Int("clients", result.ClientsTotal).
		Int("failed", result.ClientsFailed).
		Int("recommendations", result.Recommendations).
		Dur("duration", result.Duration).
		Msg("run finished")

	if s.cfg.OutputDir != "" {
		if werr := s.writeReport(ctx); werr != nil {
			s.logger.Error().Err(werr).Msg("report generation failed")
		}
	}
}

func (s *Server) writeReport(ctx context.Context) error {
	catalog, err := s.stores.Catalog.GetCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	report, err := reporting.NewGenerator(s.stores.Clients, s.stores.Holdings, s.stores.Results, s.stores.Runs, catalog).
		WithClock(s.now).
		Generate(ctx)
	if err != nil {
		return err
	}
	paths, err := reporting.WriteFiles(report, s.cfg.OutputDir)
	if err != nil {
		return err
	}
	s.logger.Info().Strs("files", paths).Msg("report written")
	return nil
}

// processClient recomputes a single client with the current window.
func (s *Server) processClient(ctx context.Context, code int64) (*domain.ClientResults, error) {
	window, err := s.window()
	if err != nil {
		return nil, err
	}
	return s.newOrchestrator(window).ProcessClient(ctx, code)
}
