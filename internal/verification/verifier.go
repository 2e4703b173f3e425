// Package verification recomputes stored recommendations and reports
// divergences. Identical inputs, policy and window must reproduce the
// stored recommendations exactly.
package verification

import (
	"context"
	"fmt"
	"strconv"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Rank     int    // 0 for client-level fields
	Field    string // field name
	Expected string // stored value
	Actual   string // recomputed value
}

func (d FieldDivergence) String() string {
	if d.Rank == 0 {
		return fmt.Sprintf("%s: stored %q, recomputed %q", d.Field, d.Expected, d.Actual)
	}
	return fmt.Sprintf("rank %d %s: stored %q, recomputed %q", d.Rank, d.Field, d.Expected, d.Actual)
}

// VerificationResult contains the result of verifying a single client.
type VerificationResult struct {
	ClientCode  int64
	Match       bool              // true if all fields match
	Skipped     string            // non-empty when the client could not be recomputed
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalClients     int
	MatchedClients   int
	DivergentClients int
	SkippedClients   int
	Results          []VerificationResult // ordered by client code
}

// Recomputer produces fresh results for a client without persisting them.
type Recomputer interface {
	Compute(ctx context.Context, code int64) (*domain.ClientResults, error)
}

// CompareRecommendations compares two ranked lists field by field.
// Notification text is not compared.
func CompareRecommendations(stored, recomputed []domain.Recommendation) []FieldDivergence {
	var divergences []FieldDivergence

	if len(stored) != len(recomputed) {
		divergences = append(divergences, FieldDivergence{
			Field:    "count",
			Expected: strconv.Itoa(len(stored)),
			Actual:   strconv.Itoa(len(recomputed)),
		})
	}

	n := min(len(stored), len(recomputed))
	for i := 0; i < n; i++ {
		s, r := stored[i], recomputed[i]
		rank := i + 1
		check := func(field, expected, actual string) {
			if expected != actual {
				divergences = append(divergences, FieldDivergence{
					Rank:     rank,
					Field:    field,
					Expected: expected,
					Actual:   actual,
				})
			}
		}

		check("id", s.ID, r.ID)
		check("product", string(s.Product), string(r.Product))
		check("rank", strconv.Itoa(s.Rank), strconv.Itoa(r.Rank))
		if !s.Benefit.Equal(r.Benefit) {
			check("benefit", s.Benefit.String(), r.Benefit.String())
		}
		if !s.Confidence.Equal(r.Confidence) {
			check("confidence", s.Confidence.String(), r.Confidence.String())
		}
		check("reason", s.Reason, r.Reason)
	}

	return divergences
}

// Verifier compares stored recommendations with freshly computed ones.
type Verifier struct {
	clients    storage.ClientStore
	results    storage.ResultStore
	recomputer Recomputer
}

// NewVerifier creates a verifier. The recomputer must use the same policy
// and window as the run that produced the stored results.
func NewVerifier(clients storage.ClientStore, results storage.ResultStore, recomputer Recomputer) *Verifier {
	return &Verifier{
		clients:    clients,
		results:    results,
		recomputer: recomputer,
	}
}

// VerifyClient verifies one client. Clients that fail validation are
// reported as skipped rather than returned as errors.
func (v *Verifier) VerifyClient(ctx context.Context, code int64) (*VerificationResult, error) {
	stored, err := v.results.GetRecommendations(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load stored recommendations for client %d: %w", code, err)
	}

	fresh, err := v.recomputer.Compute(ctx, code)
	if err != nil {
		if domain.IsDataIntegrityError(err) {
			return &VerificationResult{ClientCode: code, Skipped: err.Error()}, nil
		}
		return nil, fmt.Errorf("recompute client %d: %w", code, err)
	}

	divergences := CompareRecommendations(stored, fresh.Recommendations)
	return &VerificationResult{
		ClientCode:  code,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// VerifyAll verifies every known client in ascending code order.
func (v *Verifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	codes, err := v.clients.ListClientCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	report := &VerificationReport{
		TotalClients: len(codes),
		Results:      make([]VerificationResult, 0, len(codes)),
	}

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := v.VerifyClient(ctx, code)
		if err != nil {
			return nil, err
		}

		switch {
		case result.Skipped != "":
			report.SkippedClients++
		case result.Match:
			report.MatchedClients++
		default:
			report.DivergentClients++
		}
		report.Results = append(report.Results, *result)
	}

	return report, nil
}
