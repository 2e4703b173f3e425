package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

var _ storage.ResultStore = (*ResultStore)(nil)

// ReplaceClientResults deletes and re-inserts the client's output in one transaction.
func (s *ResultStore) ReplaceClientResults(ctx context.Context, r *domain.ClientResults) error {
	if r == nil || r.ClientCode <= 0 {
		return storage.ErrInvalidInput
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM signals WHERE client_code = $1`, r.ClientCode)
	batch.Queue(`DELETE FROM benefit_estimates WHERE client_code = $1`, r.ClientCode)
	batch.Queue(`DELETE FROM recommendations WHERE client_code = $1`, r.ClientCode)

	for _, sig := range r.Signals {
		batch.Queue(`
			INSERT INTO signals (client_code, product, signal_type, feature, value, threshold, strength)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.ClientCode, string(sig.Product), string(sig.Type), string(sig.Feature), sig.Value, sig.Threshold, sig.Strength.String())
	}

	for _, e := range r.Estimates {
		breakdown, err := json.Marshal(e.Breakdown)
		if err != nil {
			return fmt.Errorf("marshal breakdown: %w", err)
		}
		batch.Queue(`
			INSERT INTO benefit_estimates (client_code, product, benefit, benefit_type, confidence, breakdown)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.ClientCode, string(e.Product), e.Benefit, string(e.BenefitType), e.Confidence, breakdown)
	}

	for _, rec := range r.Recommendations {
		if rec.ClientCode != r.ClientCode || rec.ID == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(`
			INSERT INTO recommendations (id, client_code, product, rank, benefit, confidence, reason, notification)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, rec.ID, r.ClientCode, string(rec.Product), rec.Rank, rec.Benefit, rec.Confidence, rec.Reason, rec.Notification)
	}

	return sendBatch(ctx, s.pool, batch, fmt.Sprintf("replace results of client %d", r.ClientCode))
}

const selectRecommendations = `
	SELECT id, client_code, product, rank, benefit, confidence, reason, notification
	FROM recommendations
`

// GetRecommendations returns the client's recommendations ordered by rank.
func (s *ResultStore) GetRecommendations(ctx context.Context, code int64) ([]domain.Recommendation, error) {
	return s.queryRecommendations(ctx, selectRecommendations+` WHERE client_code = $1 ORDER BY rank ASC`, code)
}

// ListRecommendations returns all recommendations ordered by (client_code, rank).
func (s *ResultStore) ListRecommendations(ctx context.Context) ([]domain.Recommendation, error) {
	return s.queryRecommendations(ctx, selectRecommendations+` ORDER BY client_code ASC, rank ASC`)
}

func (s *ResultStore) queryRecommendations(ctx context.Context, query string, args ...any) ([]domain.Recommendation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	out := []domain.Recommendation{}
	for rows.Next() {
		var (
			rec     domain.Recommendation
			product string
		)
		if err := rows.Scan(&rec.ID, &rec.ClientCode, &product, &rec.Rank, &rec.Benefit, &rec.Confidence, &rec.Reason, &rec.Notification); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Product = domain.ProductCode(product)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return out, nil
}

// ListSignals returns all signals ordered by (client_code, product, type).
func (s *ResultStore) ListSignals(ctx context.Context) ([]domain.Signal, error) {
	query := `
		SELECT client_code, product, signal_type, feature, value, threshold, strength
		FROM signals
		ORDER BY client_code ASC, product COLLATE "C" ASC, signal_type COLLATE "C" ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := []domain.Signal{}
	for rows.Next() {
		var (
			sig                             domain.Signal
			product, typ, feature, strength string
		)
		if err := rows.Scan(&sig.ClientCode, &product, &typ, &feature, &sig.Value, &sig.Threshold, &strength); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Product = domain.ProductCode(product)
		sig.Type = domain.SignalType(typ)
		sig.Feature = domain.FeatureName(feature)
		sig.Strength = domain.ParseStrength(strength)
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return out, nil
}

// ListEstimates returns all estimates ordered by (client_code, product).
func (s *ResultStore) ListEstimates(ctx context.Context) ([]domain.BenefitEstimate, error) {
	query := `
		SELECT client_code, product, benefit, benefit_type, confidence, breakdown
		FROM benefit_estimates
		ORDER BY client_code ASC, product COLLATE "C" ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	out := []domain.BenefitEstimate{}
	for rows.Next() {
		var (
			e             domain.BenefitEstimate
			product, kind string
			breakdown     []byte
		)
		if err := rows.Scan(&e.ClientCode, &product, &e.Benefit, &kind, &e.Confidence, &breakdown); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		if err := json.Unmarshal(breakdown, &e.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown of client %d product %s: %w", e.ClientCode, product, err)
		}
		e.Product = domain.ProductCode(product)
		e.BenefitType = domain.BenefitType(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return out, nil
}

// SetNotification stores the notification text of one recommendation.
func (s *ResultStore) SetNotification(ctx context.Context, code int64, product domain.ProductCode, text string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE recommendations SET notification = $3
		WHERE client_code = $1 AND product = $2
	`, code, string(product), text)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
