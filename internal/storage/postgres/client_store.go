package postgres

import (
	"context"
	"fmt"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// ClientStore implements storage.ClientStore using PostgreSQL.
type ClientStore struct {
	pool *Pool
}

// NewClientStore creates a new ClientStore.
func NewClientStore(pool *Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

var _ storage.ClientStore = (*ClientStore)(nil)

// InsertClients adds profiles atomically. Fails entire batch on any duplicate.
func (s *ClientStore) InsertClients(ctx context.Context, clients []*domain.Client) error {
	if len(clients) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO clients (client_code, name, status, age, city, avg_monthly_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, c := range clients {
		if c == nil || c.Code <= 0 {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query, c.Code, c.Name, string(c.Status), c.Age, c.City, c.AvgMonthlyBalance)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert client %d: %w", c.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetClient retrieves a profile by code. Returns ErrNotFound if not exists.
func (s *ClientStore) GetClient(ctx context.Context, code int64) (*domain.Client, error) {
	query := `
		SELECT client_code, name, status, age, city, avg_monthly_balance
		FROM clients
		WHERE client_code = $1
	`

	var (
		c      domain.Client
		status string
	)
	err := s.pool.QueryRow(ctx, query, code).Scan(&c.Code, &c.Name, &status, &c.Age, &c.City, &c.AvgMonthlyBalance)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get client %d: %w", code, err)
	}
	c.Status = domain.ClientStatus(status)
	return &c, nil
}

// ListClientCodes returns all client codes in ascending order.
func (s *ClientStore) ListClientCodes(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT client_code FROM clients ORDER BY client_code ASC`)
	if err != nil {
		return nil, fmt.Errorf("query client codes: %w", err)
	}
	defer rows.Close()

	var codes []int64
	for rows.Next() {
		var code int64
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan client code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client codes: %w", err)
	}
	return codes, nil
}
