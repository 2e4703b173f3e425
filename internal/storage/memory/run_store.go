package memory

import (
	"context"
	"sync"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunSummary // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunSummary),
	}
}

// SaveRun inserts a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) SaveRun(_ context.Context, run *domain.RunSummary) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[run.RunID] = copyRun(run)
	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetRun(_ context.Context, runID string) (*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(run), nil
}

// LatestRun returns the run with the latest start time, ties broken by run_id.
func (s *RunStore) LatestRun(_ context.Context) (*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.RunSummary
	for _, run := range s.data {
		if latest == nil ||
			run.StartedAt.After(latest.StartedAt) ||
			(run.StartedAt.Equal(latest.StartedAt) && run.RunID > latest.RunID) {
			latest = run
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyRun(latest), nil
}

func copyRun(run *domain.RunSummary) *domain.RunSummary {
	cp := *run
	cp.Errors = append([]string(nil), run.Errors...)
	return &cp
}

var _ storage.RunStore = (*RunStore)(nil)
