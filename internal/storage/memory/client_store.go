package memory

import (
	"context"
	"sort"
	"sync"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// ClientStore is an in-memory implementation of storage.ClientStore.
type ClientStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.Client // keyed by client_code
}

// NewClientStore creates a new in-memory client store.
func NewClientStore() *ClientStore {
	return &ClientStore{
		data: make(map[int64]*domain.Client),
	}
}

// InsertClients adds profiles atomically. Fails entire batch on any duplicate.
func (s *ClientStore) InsertClients(_ context.Context, clients []*domain.Client) error {
	if len(clients) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int64]struct{}, len(clients))
	for _, c := range clients {
		if c == nil || c.Code <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[c.Code]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[c.Code]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.Code] = struct{}{}
	}

	for _, c := range clients {
		cp := *c
		s.data[c.Code] = &cp
	}
	return nil
}

// GetClient retrieves a profile by code. Returns ErrNotFound if not exists.
func (s *ClientStore) GetClient(_ context.Context, code int64) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[code]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListClientCodes returns all client codes in ascending order.
func (s *ClientStore) ListClientCodes(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]int64, 0, len(s.data))
	for code := range s.data {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, nil
}

var _ storage.ClientStore = (*ClientStore)(nil)
