package postgres

import (
	"context"
	"fmt"
	"sort"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// HoldingStore implements storage.HoldingStore using PostgreSQL.
type HoldingStore struct {
	pool *Pool
}

// NewHoldingStore creates a new HoldingStore.
func NewHoldingStore(pool *Pool) *HoldingStore {
	return &HoldingStore{pool: pool}
}

var _ storage.HoldingStore = (*HoldingStore)(nil)

// AddHolding records an explicit holding. Re-adding the same reference is a no-op.
func (s *HoldingStore) AddHolding(ctx context.Context, code int64, ref string) error {
	if ref == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_products (client_code, product_ref) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, code, ref)
	if err != nil {
		return fmt.Errorf("insert holding: %w", err)
	}
	return nil
}

// currentProductsQuery unions explicit holdings with the latest transaction
// product. Postgres only accepts output column names in a UNION's ORDER BY,
// so ordering happens in Go.
const currentProductsQuery = `
		SELECT product_ref FROM client_products WHERE client_code = $1
		UNION
		SELECT product FROM (
			SELECT product FROM transactions
			WHERE client_code = $1 AND product <> ''
			ORDER BY txn_date DESC, id DESC
			LIMIT 1
		) latest
	`

// GetCurrentProducts returns explicit holdings plus the latest transaction product, sorted and unique.
func (s *HoldingStore) GetCurrentProducts(ctx context.Context, code int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, currentProductsQuery, code)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return sortRefs(refs), nil
}

// sortRefs orders references bytewise, matching the memory store.
func sortRefs(refs []string) []string {
	sort.Strings(refs)
	return refs
}

// CatalogStore implements storage.CatalogStore over the seeded products table.
type CatalogStore struct {
	pool *Pool
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(pool *Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

var _ storage.CatalogStore = (*CatalogStore)(nil)

// GetCatalog loads all products. Unknown codes in the table fail catalog validation.
func (s *CatalogStore) GetCatalog(ctx context.Context) (*domain.Catalog, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, code, name, type, aliases FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p          domain.Product
			code, kind string
		)
		if err := rows.Scan(&p.ID, &code, &p.Name, &kind, &p.Aliases); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Code = domain.ProductCode(code)
		p.Type = domain.ProductType(kind)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return domain.NewCatalog(products)
}
