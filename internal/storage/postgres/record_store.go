package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertTransactions appends transactions in one batch.
func (s *TransactionStore) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	query := `
		INSERT INTO transactions (client_code, txn_date, category, amount, currency, product)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, t := range txs {
		if t == nil {
			return storage.ErrInvalidInput
		}
		batch.Queue(query, t.ClientCode, t.Date, t.Category, t.Amount, t.Currency, t.Product)
	}
	return sendBatch(ctx, s.pool, batch, "insert transactions")
}

// GetByClient retrieves the client's transactions inside the window, ordered by date ASC.
func (s *TransactionStore) GetByClient(ctx context.Context, code int64, window domain.Window) ([]domain.Transaction, error) {
	query := `
		SELECT client_code, txn_date, category, amount, currency, product
		FROM transactions
		WHERE client_code = $1 AND txn_date >= $2 AND txn_date < $3
		ORDER BY txn_date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, code, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ClientCode, &t.Date, &t.Category, &t.Amount, &t.Currency, &t.Product); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = t.Date.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// TransferStore implements storage.TransferStore using PostgreSQL.
type TransferStore struct {
	pool *Pool
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(pool *Pool) *TransferStore {
	return &TransferStore{pool: pool}
}

var _ storage.TransferStore = (*TransferStore)(nil)

// InsertTransfers appends transfers in one batch.
func (s *TransferStore) InsertTransfers(ctx context.Context, transfers []*domain.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	query := `
		INSERT INTO transfers (client_code, transfer_date, transfer_type, direction, amount, currency, product)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, t := range transfers {
		if t == nil {
			return storage.ErrInvalidInput
		}
		batch.Queue(query, t.ClientCode, t.Date, string(t.Type), t.Direction, t.Amount, t.Currency, t.Product)
	}
	return sendBatch(ctx, s.pool, batch, "insert transfers")
}

// GetByClient retrieves the client's transfers inside the window, ordered by date ASC.
func (s *TransferStore) GetByClient(ctx context.Context, code int64, window domain.Window) ([]domain.Transfer, error) {
	query := `
		SELECT client_code, transfer_date, transfer_type, direction, amount, currency, product
		FROM transfers
		WHERE client_code = $1 AND transfer_date >= $2 AND transfer_date < $3
		ORDER BY transfer_date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, code, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []domain.Transfer
	for rows.Next() {
		var (
			t   domain.Transfer
			typ string
		)
		if err := rows.Scan(&t.ClientCode, &t.Date, &typ, &t.Direction, &t.Amount, &t.Currency, &t.Product); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.Type = domain.TransferType(typ)
		t.Date = t.Date.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return out, nil
}

// sendBatch runs the queued statements inside one transaction.
func sendBatch(ctx context.Context, pool *Pool, batch *pgx.Batch, op string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
