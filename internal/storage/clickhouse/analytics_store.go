package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// AnalyticsStore implements storage.AnalyticsSink using ClickHouse.
// Both tables are ReplacingMergeTree keyed by run, client and product,
// so a retried insert replaces rather than duplicates; reads use FINAL.
type AnalyticsStore struct {
	conn *Conn
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(conn *Conn) *AnalyticsStore {
	return &AnalyticsStore{conn: conn}
}

var _ storage.AnalyticsSink = (*AnalyticsStore)(nil)

// InsertEstimates appends the estimates of one run in a single batch.
func (s *AnalyticsStore) InsertEstimates(ctx context.Context, runID string, estimates []domain.BenefitEstimate) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(estimates) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO benefit_history (
			run_id, client_code, product, benefit, benefit_type, confidence, gated, flags
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range estimates {
		var gated uint8
		if e.Breakdown.HasFlag(domain.FlagGated) {
			gated = 1
		}
		flags := e.Breakdown.Flags
		if flags == nil {
			flags = []string{}
		}
		err = batch.Append(
			runID, e.ClientCode, string(e.Product), e.Benefit, string(e.BenefitType), e.Confidence, gated, flags,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// InsertSignals appends the signals of one run in a single batch.
func (s *AnalyticsStore) InsertSignals(ctx context.Context, runID string, signals []domain.Signal) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(signals) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO signal_history (
			run_id, client_code, product, signal_type, feature, value, threshold, strength
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sig := range signals {
		err = batch.Append(
			runID, sig.ClientCode, string(sig.Product), string(sig.Type), string(sig.Feature),
			sig.Value, sig.Threshold, sig.Strength.String(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ProductStats aggregates the estimates of one product in one run.
type ProductStats struct {
	Product    domain.ProductCode
	Estimates  uint64
	Gated      uint64
	AvgBenefit decimal.Decimal
	MaxBenefit decimal.Decimal
}

// GetProductStats returns per-product estimate statistics of a run ordered by product.
func (s *AnalyticsStore) GetProductStats(ctx context.Context, runID string) ([]ProductStats, error) {
	query := `
		SELECT
			product,
			count() AS estimates,
			countIf(gated = 1) AS gated,
			toDecimal64(avg(benefit), 2) AS avg_benefit,
			max(benefit) AS max_benefit
		FROM benefit_history FINAL
		WHERE run_id = ?
		GROUP BY product
		ORDER BY product ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query product stats: %w", err)
	}
	defer rows.Close()

	var out []ProductStats
	for rows.Next() {
		var (
			st      ProductStats
			product string
		)
		if err := rows.Scan(&product, &st.Estimates, &st.Gated, &st.AvgBenefit, &st.MaxBenefit); err != nil {
			return nil, fmt.Errorf("scan product stats: %w", err)
		}
		st.Product = domain.ProductCode(product)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product stats: %w", err)
	}
	return out, nil
}

// CountSignals returns the number of distinct signal rows of a run.
func (s *AnalyticsStore) CountSignals(ctx context.Context, runID string) (uint64, error) {
	var n uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM signal_history FINAL WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}
