package memory

import (
	"context"
	"fmt"
	"sync"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// AnalyticsSink is an in-memory implementation of storage.AnalyticsSink.
// Rows are keyed like the ClickHouse ReplacingMergeTree tables, so a
// re-insert of the same key replaces the previous row.
type AnalyticsSink struct {
	mu        sync.RWMutex
	estimates map[string]domain.BenefitEstimate
	signals   map[string]domain.Signal
}

// NewAnalyticsSink creates a new in-memory analytics sink.
func NewAnalyticsSink() *AnalyticsSink {
	return &AnalyticsSink{
		estimates: make(map[string]domain.BenefitEstimate),
		signals:   make(map[string]domain.Signal),
	}
}

// InsertEstimates stores estimates of one run.
func (s *AnalyticsSink) InsertEstimates(_ context.Context, runID string, estimates []domain.BenefitEstimate) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range estimates {
		s.estimates[fmt.Sprintf("%s|%d|%s", runID, e.ClientCode, e.Product)] = copyEstimate(e)
	}
	return nil
}

// InsertSignals stores signals of one run.
func (s *AnalyticsSink) InsertSignals(_ context.Context, runID string, signals []domain.Signal) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sig := range signals {
		s.signals[fmt.Sprintf("%s|%d|%s|%s", runID, sig.ClientCode, sig.Product, sig.Type)] = sig
	}
	return nil
}

// Counts returns the number of stored estimate and signal rows.
func (s *AnalyticsSink) Counts() (estimates, signals int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.estimates), len(s.signals)
}

var _ storage.AnalyticsSink = (*AnalyticsSink)(nil)
