package storage

import (
	"context"

	"bank-personalization/internal/domain"
)

// ClientStore provides access to client profiles.
type ClientStore interface {
	// InsertClients adds client profiles. Fails entire batch on any duplicate client_code.
	InsertClients(ctx context.Context, clients []*domain.Client) error

	// GetClient retrieves a profile by client code. Returns ErrNotFound if not exists.
	GetClient(ctx context.Context, code int64) (*domain.Client, error)

	// ListClientCodes returns all client codes in ascending order.
	ListClientCodes(ctx context.Context) ([]int64, error)
}

// TransactionStore provides access to card transactions.
type TransactionStore interface {
	// InsertTransactions appends transactions.
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) error

	// GetByClient retrieves the client's transactions inside the window, ordered by date ASC.
	GetByClient(ctx context.Context, code int64, window domain.Window) ([]domain.Transaction, error)
}

// TransferStore provides access to account transfers.
type TransferStore interface {
	// InsertTransfers appends transfers.
	InsertTransfers(ctx context.Context, transfers []*domain.Transfer) error

	// GetByClient retrieves the client's transfers inside the window, ordered by date ASC.
	GetByClient(ctx context.Context, code int64, window domain.Window) ([]domain.Transfer, error)
}

// CatalogStore provides the product catalog.
type CatalogStore interface {
	GetCatalog(ctx context.Context) (*domain.Catalog, error)
}

// HoldingStore reports the products a client already holds.
type HoldingStore interface {
	// GetCurrentProducts returns product references (code, catalog name or ID)
	// held by the client. The latest non-empty transaction product counts as held.
	GetCurrentProducts(ctx context.Context, code int64) ([]string, error)
}

// ResultStore persists per-client pipeline output.
type ResultStore interface {
	// ReplaceClientResults atomically replaces signals, estimates and
	// recommendations of one client. Readers never observe a partial replace.
	ReplaceClientResults(ctx context.Context, results *domain.ClientResults) error

	// GetRecommendations returns the client's recommendations ordered by rank ASC.
	GetRecommendations(ctx context.Context, code int64) ([]domain.Recommendation, error)

	// ListRecommendations returns all recommendations ordered by (client_code, rank) ASC.
	ListRecommendations(ctx context.Context) ([]domain.Recommendation, error)

	// ListSignals returns all stored signals ordered by (client_code, product, type).
	ListSignals(ctx context.Context) ([]domain.Signal, error)

	// ListEstimates returns all stored estimates ordered by (client_code, product).
	ListEstimates(ctx context.Context) ([]domain.BenefitEstimate, error)

	// SetNotification stores the notification text of one recommendation.
	// Returns ErrNotFound if the client has no recommendation for product.
	SetNotification(ctx context.Context, code int64, product domain.ProductCode, text string) error
}

// RunStore persists batch run summaries.
type RunStore interface {
	// SaveRun inserts a run summary. Returns ErrDuplicateKey if run_id exists.
	SaveRun(ctx context.Context, run *domain.RunSummary) error

	// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.RunSummary, error)

	// LatestRun returns the run with the latest start time. Returns ErrNotFound if no runs.
	LatestRun(ctx context.Context) (*domain.RunSummary, error)
}

// AnalyticsSink receives per-run history for offline analysis.
// Re-inserting the same (run_id, client_code, product) replaces the row.
type AnalyticsSink interface {
	InsertEstimates(ctx context.Context, runID string, estimates []domain.BenefitEstimate) error
	InsertSignals(ctx context.Context, runID string, signals []domain.Signal) error
}
