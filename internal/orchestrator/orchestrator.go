// Package orchestrator runs the recommendation pipeline over the client population.
// Per client it coordinates: load → features → signals → benefit → ranking → persist → notify.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bank-personalization/internal/benefit"
	"bank-personalization/internal/domain"
	"bank-personalization/internal/features"
	"bank-personalization/internal/idhash"
	"bank-personalization/internal/notification"
	"bank-personalization/internal/observability"
	"bank-personalization/internal/policy"
	"bank-personalization/internal/ranking"
	"bank-personalization/internal/signals"
	"bank-personalization/internal/storage"
)

const (
	defaultWorkers       = 4
	defaultMaxRetries    = 3
	defaultRetryInterval = 100 * time.Millisecond
)

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	Clients      storage.ClientStore
	Transactions storage.TransactionStore
	Transfers    storage.TransferStore
	Holdings     storage.HoldingStore
	Results      storage.ResultStore
	Runs         storage.RunStore

	// Optional collaborators
	Catalog   storage.CatalogStore   // nil uses domain.DefaultCatalog
	Analytics storage.AnalyticsSink  // nil disables run history
	Notifier  notification.Generator // nil leaves notifications empty

	Policy        *policy.Policy // nil uses policy.Default
	Window        domain.Window
	Workers       int           // default 4
	MaxRetries    uint64        // retries after the first attempt, default 3
	RetryInterval time.Duration // initial backoff interval, default 100ms

	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Now     func() time.Time // default time.Now
}

// Orchestrator coordinates pipeline execution.
type Orchestrator struct {
	clients      storage.ClientStore
	transactions storage.TransactionStore
	transfers    storage.TransferStore
	holdings     storage.HoldingStore
	results      storage.ResultStore
	runs         storage.RunStore
	catalog      storage.CatalogStore
	analytics    storage.AnalyticsSink
	notifier     notification.Generator

	policy        *policy.Policy
	window        domain.Window
	workers       int
	maxRetries    uint64
	retryInterval time.Duration

	log     zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		clients:       opts.Clients,
		transactions:  opts.Transactions,
		transfers:     opts.Transfers,
		holdings:      opts.Holdings,
		results:       opts.Results,
		runs:          opts.Runs,
		catalog:       opts.Catalog,
		analytics:     opts.Analytics,
		notifier:      opts.Notifier,
		policy:        opts.Policy,
		window:        opts.Window,
		workers:       opts.Workers,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		log:           opts.Logger.With().Str("component", "orchestrator").Logger(),
		metrics:       opts.Metrics,
		now:           opts.Now,
	}
	if o.policy == nil {
		o.policy = policy.Default()
	}
	if o.workers <= 0 {
		o.workers = defaultWorkers
	}
	if o.maxRetries == 0 {
		o.maxRetries = defaultMaxRetries
	}
	if o.retryInterval <= 0 {
		o.retryInterval = defaultRetryInterval
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// RunResult contains results from one batch run. The embedded summary is
// what was persisted to the run store.
type RunResult struct {
	domain.RunSummary
	Duration time.Duration
}

// engine holds the stage implementations bound to one validated policy and catalog.
type engine struct {
	catalog    *domain.Catalog
	extractor  *features.Extractor
	detector   *signals.Detector
	calculator *benefit.Calculator
	ranker     *ranking.Ranker
}

// clientOutcome is what one processed client contributes to the run summary.
type clientOutcome struct {
	results *domain.ClientResults
	digest  string
	dropped int
	noData  bool
}

// Run executes one batch over every known client.
//
// Phases:
//  1. Validate window, catalog and policy; a ConfigurationError aborts before any client.
//  2. List client codes.
//  3. Process clients on a bounded worker pool; a failed client does not stop the batch.
//  4. Persist the run summary with the combined results digest.
//
// Cancelling ctx stops scheduling further clients; the run is saved as ABORTED
// and ctx.Err() is returned alongside the partial result.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	runID := uuid.NewString()
	log := o.log.With().Str("run_id", runID).Logger()

	eng, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	var codes []int64
	err = o.retry(ctx, "list_clients", func() error {
		var err error
		codes, err = o.clients.ListClientCodes(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	log.Info().Int("clients", len(codes)).Str("window", o.window.String()).
		Str("policy_version", o.policy.Version).Msg("run started")

	summary := domain.RunSummary{
		RunID:         runID,
		Window:        o.window,
		PolicyVersion: o.policy.Version,
		StartedAt:     started.UTC(),
		ClientsTotal:  len(codes),
	}

	var (
		mu      sync.Mutex
		digests = make(map[int64]string, len(codes))
	)

	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := o.process(ctx, eng, runID, code)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.ClientsFailed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("client %d: %v", code, err))
				o.metrics.RecordClient(observability.OutcomeFailed)
				log.Warn().Int64("client_code", code).Err(err).Msg("client failed")
				return nil
			}

			summary.ClientsSucceeded++
			summary.Recommendations += len(out.results.Recommendations)
			summary.RecordsDropped += out.dropped
			digests[code] = out.digest
			if out.noData {
				summary.ClientsNoData++
				o.metrics.RecordClient(observability.OutcomeNoData)
			} else {
				o.metrics.RecordClient(observability.OutcomeSucceeded)
			}
			return nil
		})
	}
	_ = g.Wait()

	finished := o.now()
	sort.Strings(summary.Errors)
	summary.FinishedAt = finished.UTC()
	summary.ResultsDigest = idhash.CombineDigests(digests)
	switch {
	case ctx.Err() != nil:
		summary.Status = domain.RunStatusAborted
	case summary.ClientsFailed > 0:
		summary.Status = domain.RunStatusPartial
	default:
		summary.Status = domain.RunStatusCompleted
	}

	// The summary is written even when ctx is cancelled.
	saveCtx := context.WithoutCancel(ctx)
	if err := o.retry(saveCtx, "save_run", func() error { return o.runs.SaveRun(saveCtx, &summary) }); err != nil {
		return nil, fmt.Errorf("save run %s: %w", runID, err)
	}

	duration := finished.Sub(started)
	o.metrics.RecordRun(summary.Status, duration, finished, summary.Status == domain.RunStatusCompleted)
	log.Info().
		Str("status", summary.Status).
		Int("succeeded", summary.ClientsSucceeded).
		Int("failed", summary.ClientsFailed).
		Int("no_data", summary.ClientsNoData).
		Int("recommendations", summary.Recommendations).
		Int("records_dropped", summary.RecordsDropped).
		Dur("duration", duration).
		Msg("run finished")

	result := &RunResult{RunSummary: summary, Duration: duration}
	if summary.Status == domain.RunStatusAborted {
		return result, ctx.Err()
	}
	return result, nil
}

// ProcessClient runs the pipeline for a single client outside a batch and
// returns the persisted results. Analytics rows are keyed by a fresh run ID.
func (o *Orchestrator) ProcessClient(ctx context.Context, code int64) (*domain.ClientResults, error) {
	eng, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}
	out, err := o.process(ctx, eng, uuid.NewString(), code)
	if err != nil {
		return nil, err
	}
	return out.results, nil
}

// Compute runs the stages for one client and returns the results without
// persisting them or generating notifications.
func (o *Orchestrator) Compute(ctx context.Context, code int64) (*domain.ClientResults, error) {
	eng, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}
	c, err := o.compute(ctx, eng, code)
	if err != nil {
		return nil, err
	}
	return c.results, nil
}

// prepare validates the configuration and builds the stage implementations.
func (o *Orchestrator) prepare(ctx context.Context) (*engine, error) {
	if err := o.window.Validate(); err != nil {
		return nil, err
	}

	catalog := domain.DefaultCatalog()
	if o.catalog != nil {
		err := o.retry(ctx, "load_catalog", func() error {
			var err error
			catalog, err = o.catalog.GetCatalog(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	if err := o.policy.Validate(catalog); err != nil {
		return nil, err
	}

	return &engine{
		catalog:    catalog,
		extractor:  features.NewExtractor(o.policy),
		detector:   signals.NewDetector(o.policy),
		calculator: benefit.NewCalculator(o.policy, catalog),
		ranker:     ranking.NewRanker(o.policy, catalog),
	}, nil
}

// computed is the output of the four stages before anything is written.
type computed struct {
	client   *domain.Client
	features domain.FeatureSet
	results  *domain.ClientResults
	dropped  int
	noData   bool
}

// compute loads one client and runs the four stages without side effects.
func (o *Orchestrator) compute(ctx context.Context, eng *engine, code int64) (*computed, error) {
	log := o.log.With().Int64("client_code", code).Logger()

	// Load
	start := time.Now()
	client, txs, transfers, held, err := o.load(ctx, code)
	if err != nil {
		return nil, err
	}
	o.metrics.ObserveStage(observability.StageLoad, time.Since(start))
	for _, ref := range eng.catalog.Unresolved(held) {
		log.Warn().Str("ref", ref).Msg("current product matches no catalog entry")
	}

	// Features
	start = time.Now()
	extracted := eng.extractor.Extract(client, txs, transfers, o.window)
	o.metrics.ObserveStage(observability.StageFeatures, time.Since(start))
	if extracted.DataGap {
		log.Debug().Err(domain.ErrDataGap).Msg("zero features")
	}
	if extracted.Dropped > 0 {
		log.Debug().Int("dropped", extracted.Dropped).Msg("records dropped")
	}

	// Signals
	start = time.Now()
	sigs := eng.detector.Detect(extracted.Features)
	o.metrics.ObserveStage(observability.StageSignals, time.Since(start))

	// Benefit
	start = time.Now()
	estimates, err := eng.calculator.CalculateAll(extracted.Features, sigs)
	if err != nil {
		return nil, fmt.Errorf("calculate benefits: %w", err)
	}
	o.metrics.ObserveStage(observability.StageBenefit, time.Since(start))

	// Ranking
	start = time.Now()
	recs := eng.ranker.Rank(code, held, estimates, sigs)
	for i := range recs {
		recs[i].ID = idhash.ComputeRecommendationID(code, recs[i].Product, o.window)
	}
	o.metrics.ObserveStage(observability.StageRanking, time.Since(start))

	return &computed{
		client:   client,
		features: extracted.Features,
		results: &domain.ClientResults{
			ClientCode:      code,
			Window:          o.window,
			Signals:         sigs,
			Estimates:       estimates,
			Recommendations: recs,
		},
		dropped: extracted.Dropped,
		noData:  extracted.DataGap,
	}, nil
}

// process runs the four stages for one client and persists the output.
func (o *Orchestrator) process(ctx context.Context, eng *engine, runID string, code int64) (*clientOutcome, error) {
	c, err := o.compute(ctx, eng, code)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordDropped(c.dropped)
	results := c.results
	digest := idhash.ComputeResultsDigest(*results)

	// Persist
	start := time.Now()
	if err := o.persist(ctx, runID, results); err != nil {
		return nil, err
	}
	o.metrics.ObserveStage(observability.StagePersist, time.Since(start))
	for _, r := range results.Recommendations {
		o.metrics.RecordRecommendation(string(r.Product))
	}

	// Notify
	if o.notifier != nil && len(results.Recommendations) > 0 {
		start = time.Now()
		o.notify(ctx, eng, c.client, c.features, results)
		o.metrics.ObserveStage(observability.StageNotify, time.Since(start))
	}

	o.log.Debug().
		Int64("client_code", code).
		Int("signals", len(results.Signals)).
		Int("recommendations", len(results.Recommendations)).
		Msg("client processed")

	return &clientOutcome{
		results: results,
		digest:  digest,
		dropped: c.dropped,
		noData:  c.noData,
	}, nil
}

func (o *Orchestrator) load(ctx context.Context, code int64) (*domain.Client, []domain.Transaction, []domain.Transfer, []string, error) {
	var client *domain.Client
	err := o.retry(ctx, "load_client", func() error {
		var err error
		client, err = o.clients.GetClient(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return &domain.DataIntegrityError{ClientCode: code, Reason: "client profile not found"}
		}
		return err
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load client %d: %w", code, err)
	}
	if err := client.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	var txs []domain.Transaction
	err = o.retry(ctx, "load_transactions", func() error {
		var err error
		txs, err = o.transactions.GetByClient(ctx, code, o.window)
		return err
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load transactions for client %d: %w", code, err)
	}

	var transfers []domain.Transfer
	err = o.retry(ctx, "load_transfers", func() error {
		var err error
		transfers, err = o.transfers.GetByClient(ctx, code, o.window)
		return err
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load transfers for client %d: %w", code, err)
	}

	var held []string
	err = o.retry(ctx, "load_holdings", func() error {
		var err error
		held, err = o.holdings.GetCurrentProducts(ctx, code)
		return err
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load current products for client %d: %w", code, err)
	}

	return client, txs, transfers, held, nil
}

func (o *Orchestrator) persist(ctx context.Context, runID string, results *domain.ClientResults) error {
	code := results.ClientCode
	if err := o.retry(ctx, "replace_results", func() error { return o.results.ReplaceClientResults(ctx, results) }); err != nil {
		return fmt.Errorf("replace results for client %d: %w", code, err)
	}

	if o.analytics == nil {
		return nil
	}
	if err := o.retry(ctx, "insert_estimates", func() error { return o.analytics.InsertEstimates(ctx, runID, results.Estimates) }); err != nil {
		return fmt.Errorf("insert estimate history for client %d: %w", code, err)
	}
	if len(results.Signals) > 0 {
		if err := o.retry(ctx, "insert_signals", func() error { return o.analytics.InsertSignals(ctx, runID, results.Signals) }); err != nil {
			return fmt.Errorf("insert signal history for client %d: %w", code, err)
		}
	}
	return nil
}

// notify generates the text of every recommendation. Failures are logged
// per recommendation and never fail the client.
func (o *Orchestrator) notify(ctx context.Context, eng *engine, client *domain.Client, fs domain.FeatureSet, results *domain.ClientResults) {
	estimates := make(map[domain.ProductCode]domain.BenefitEstimate, len(results.Estimates))
	for _, est := range results.Estimates {
		estimates[est.Product] = est
	}

	for i := range results.Recommendations {
		rec := &results.Recommendations[i]
		log := o.log.With().Int64("client_code", client.Code).Str("product", string(rec.Product)).Int("rank", rec.Rank).Logger()

		product, _ := eng.catalog.Get(rec.Product)
		text, err := o.notifier.Generate(ctx, notification.Request{
			Client:         *client,
			Product:        product,
			Recommendation: *rec,
			Estimate:       estimates[rec.Product],
			Features:       fs,
		})
		if err != nil {
			log.Warn().Err(err).Msg("notification generation failed")
			continue
		}
		err = o.retry(ctx, "set_notification", func() error {
			return o.results.SetNotification(ctx, client.Code, rec.Product, text)
		})
		if err != nil {
			log.Warn().Err(err).Msg("notification not stored")
			continue
		}
		rec.Notification = text
	}
}

// retry runs fn with exponential backoff. Configuration, data integrity and
// storage sentinel errors are not retried.
func (o *Orchestrator) retry(ctx context.Context, operation string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.retryInterval
	b.MaxInterval = 20 * o.retryInterval
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, o.maxRetries), ctx), func(err error, wait time.Duration) {
		o.metrics.RecordRetry(operation)
		o.log.Debug().Err(err).Str("operation", operation).Dur("wait", wait).Msg("retrying")
	})
}

func permanent(err error) bool {
	return domain.IsConfigurationError(err) ||
		domain.IsDataIntegrityError(err) ||
		errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrDuplicateKey) ||
		errors.Is(err, storage.ErrInvalidInput) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
