package memory

import (
	"context"
	"sort"
	"sync"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[int64][]domain.Transaction // keyed by client_code, insertion order
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[int64][]domain.Transaction),
	}
}

// InsertTransactions appends transactions. A nil entry rejects the whole batch.
func (s *TransactionStore) InsertTransactions(_ context.Context, txs []*domain.Transaction) error {
	for _, tx := range txs {
		if tx == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		s.data[tx.ClientCode] = append(s.data[tx.ClientCode], *tx)
	}
	return nil
}

// GetByClient retrieves the client's transactions inside the window, ordered by date ASC.
func (s *TransactionStore) GetByClient(_ context.Context, code int64, window domain.Window) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.data[code] {
		if window.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// latestProduct returns the product of the latest transaction carrying one.
// Later insertion wins on equal dates.
func (s *TransactionStore) latestProduct(code int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		product string
		latest  domain.Transaction
	)
	for _, tx := range s.data[code] {
		if tx.Product == "" {
			continue
		}
		if product == "" || !tx.Date.Before(latest.Date) {
			product = tx.Product
			latest = tx
		}
	}
	return product
}

// TransferStore is an in-memory implementation of storage.TransferStore.
type TransferStore struct {
	mu   sync.RWMutex
	data map[int64][]domain.Transfer // keyed by client_code, insertion order
}

// NewTransferStore creates a new in-memory transfer store.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		data: make(map[int64][]domain.Transfer),
	}
}

// InsertTransfers appends transfers. A nil entry rejects the whole batch.
func (s *TransferStore) InsertTransfers(_ context.Context, transfers []*domain.Transfer) error {
	for _, tr := range transfers {
		if tr == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tr := range transfers {
		s.data[tr.ClientCode] = append(s.data[tr.ClientCode], *tr)
	}
	return nil
}

// GetByClient retrieves the client's transfers inside the window, ordered by date ASC.
func (s *TransferStore) GetByClient(_ context.Context, code int64, window domain.Window) ([]domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transfer
	for _, tr := range s.data[code] {
		if window.Contains(tr.Date) {
			out = append(out, tr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

var (
	_ storage.TransactionStore = (*TransactionStore)(nil)
	_ storage.TransferStore    = (*TransferStore)(nil)
)
