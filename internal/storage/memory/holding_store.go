package memory

import (
	"context"
	"sort"
	"sync"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// HoldingStore is an in-memory implementation of storage.HoldingStore.
// Holdings are the explicit references added with AddHolding plus the
// latest transaction product, when a transaction store is attached.
type HoldingStore struct {
	mu       sync.RWMutex
	explicit map[int64]map[string]struct{}
	txs      *TransactionStore
}

// NewHoldingStore creates a holding store. txs may be nil.
func NewHoldingStore(txs *TransactionStore) *HoldingStore {
	return &HoldingStore{
		explicit: make(map[int64]map[string]struct{}),
		txs:      txs,
	}
}

// AddHolding records that the client holds the referenced product.
func (s *HoldingStore) AddHolding(_ context.Context, code int64, ref string) error {
	if ref == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.explicit[code] == nil {
		s.explicit[code] = make(map[string]struct{})
	}
	s.explicit[code][ref] = struct{}{}
	return nil
}

// GetCurrentProducts returns the client's product references, sorted and unique.
func (s *HoldingStore) GetCurrentProducts(_ context.Context, code int64) ([]string, error) {
	s.mu.RLock()
	refs := make(map[string]struct{}, len(s.explicit[code])+1)
	for ref := range s.explicit[code] {
		refs[ref] = struct{}{}
	}
	s.mu.RUnlock()

	if s.txs != nil {
		if p := s.txs.latestProduct(code); p != "" {
			refs[p] = struct{}{}
		}
	}

	out := make([]string, 0, len(refs))
	for ref := range refs {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out, nil
}

// CatalogStore serves a fixed product catalog.
type CatalogStore struct {
	catalog *domain.Catalog
}

// NewCatalogStore creates a catalog store. A nil catalog serves the default products.
func NewCatalogStore(catalog *domain.Catalog) *CatalogStore {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	return &CatalogStore{catalog: catalog}
}

// GetCatalog returns the catalog.
func (s *CatalogStore) GetCatalog(_ context.Context) (*domain.Catalog, error) {
	return s.catalog, nil
}

var (
	_ storage.HoldingStore = (*HoldingStore)(nil)
	_ storage.CatalogStore = (*CatalogStore)(nil)
)
