package memory

import (
	"context"
	"sort"
	"sync"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

type clientResults struct {
	signals         []domain.Signal
	estimates       []domain.BenefitEstimate
	recommendations []domain.Recommendation
}

// ResultStore is an in-memory implementation of storage.ResultStore.
// A replace swaps the client's entry under the write lock.
type ResultStore struct {
	mu   sync.RWMutex
	data map[int64]*clientResults
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[int64]*clientResults),
	}
}

// ReplaceClientResults replaces everything stored for the client.
func (s *ResultStore) ReplaceClientResults(_ context.Context, r *domain.ClientResults) error {
	if r == nil || r.ClientCode <= 0 {
		return storage.ErrInvalidInput
	}
	for _, rec := range r.Recommendations {
		if rec.ClientCode != r.ClientCode || rec.Rank < 1 {
			return storage.ErrInvalidInput
		}
	}

	entry := &clientResults{
		signals:         append([]domain.Signal(nil), r.Signals...),
		estimates:       make([]domain.BenefitEstimate, len(r.Estimates)),
		recommendations: append([]domain.Recommendation(nil), r.Recommendations...),
	}
	for i, e := range r.Estimates {
		entry.estimates[i] = copyEstimate(e)
	}
	sort.Slice(entry.recommendations, func(i, j int) bool {
		return entry.recommendations[i].Rank < entry.recommendations[j].Rank
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[r.ClientCode] = entry
	return nil
}

// GetRecommendations returns the client's recommendations ordered by rank.
func (s *ResultStore) GetRecommendations(_ context.Context, code int64) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[code]
	if !ok {
		return []domain.Recommendation{}, nil
	}
	return append([]domain.Recommendation{}, entry.recommendations...), nil
}

// ListRecommendations returns all recommendations ordered by (client_code, rank).
func (s *ResultStore) ListRecommendations(_ context.Context) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Recommendation{}
	for _, code := range s.codesLocked() {
		out = append(out, s.data[code].recommendations...)
	}
	return out, nil
}

// ListSignals returns all signals ordered by (client_code, product, type).
func (s *ResultStore) ListSignals(_ context.Context) ([]domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Signal{}
	for _, code := range s.codesLocked() {
		signals := append([]domain.Signal(nil), s.data[code].signals...)
		domain.SortSignals(signals)
		out = append(out, signals...)
	}
	return out, nil
}

// ListEstimates returns all estimates ordered by (client_code, product).
func (s *ResultStore) ListEstimates(_ context.Context) ([]domain.BenefitEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.BenefitEstimate{}
	for _, code := range s.codesLocked() {
		start := len(out)
		for _, e := range s.data[code].estimates {
			out = append(out, copyEstimate(e))
		}
		part := out[start:]
		sort.Slice(part, func(i, j int) bool { return part[i].Product < part[j].Product })
	}
	return out, nil
}

// SetNotification stores the notification text of one recommendation.
func (s *ResultStore) SetNotification(_ context.Context, code int64, product domain.ProductCode, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[code]
	if !ok {
		return storage.ErrNotFound
	}
	for i := range entry.recommendations {
		if entry.recommendations[i].Product == product {
			entry.recommendations[i].Notification = text
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *ResultStore) codesLocked() []int64 {
	codes := make([]int64, 0, len(s.data))
	for code := range s.data {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func copyEstimate(e domain.BenefitEstimate) domain.BenefitEstimate {
	e.Breakdown = domain.Breakdown{
		Terms:  append([]domain.BenefitTerm(nil), e.Breakdown.Terms...),
		Inputs: append([]domain.FeatureInput(nil), e.Breakdown.Inputs...),
		Flags:  append([]string(nil), e.Breakdown.Flags...),
	}
	return e
}

var _ storage.ResultStore = (*ResultStore)(nil)
