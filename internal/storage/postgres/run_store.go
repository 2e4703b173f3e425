package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

var _ storage.RunStore = (*RunStore)(nil)

// SaveRun inserts a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) SaveRun(ctx context.Context, run *domain.RunSummary) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal run errors: %w", err)
	}

	query := `
		INSERT INTO runs (
			run_id, window_start, window_end, policy_version, started_at, finished_at, status,
			clients_total, clients_succeeded, clients_failed, clients_no_data,
			recommendations, records_dropped, results_digest, errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.pool.Exec(ctx, query,
		run.RunID, run.Window.Start, run.Window.End, run.PolicyVersion, run.StartedAt, run.FinishedAt, run.Status,
		run.ClientsTotal, run.ClientsSucceeded, run.ClientsFailed, run.ClientsNoData,
		run.Recommendations, run.RecordsDropped, run.ResultsDigest, errorsJSON,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRun = `
	SELECT run_id, window_start, window_end, policy_version, started_at, finished_at, status,
		clients_total, clients_succeeded, clients_failed, clients_no_data,
		recommendations, records_dropped, results_digest, errors
	FROM runs
`

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*domain.RunSummary, error) {
	return s.queryRun(ctx, selectRun+` WHERE run_id = $1`, runID)
}

// LatestRun returns the run with the latest start time. Returns ErrNotFound if no runs.
func (s *RunStore) LatestRun(ctx context.Context) (*domain.RunSummary, error) {
	return s.queryRun(ctx, selectRun+` ORDER BY started_at DESC, run_id DESC LIMIT 1`)
}

func (s *RunStore) queryRun(ctx context.Context, query string, args ...any) (*domain.RunSummary, error) {
	var (
		run        domain.RunSummary
		errorsJSON []byte
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&run.RunID, &run.Window.Start, &run.Window.End, &run.PolicyVersion, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.ClientsTotal, &run.ClientsSucceeded, &run.ClientsFailed, &run.ClientsNoData,
		&run.Recommendations, &run.RecordsDropped, &run.ResultsDigest, &errorsJSON,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	if err := json.Unmarshal(errorsJSON, &run.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal run errors: %w", err)
	}

	run.Window.Start = run.Window.Start.UTC()
	run.Window.End = run.Window.End.UTC()
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return &run, nil
}
