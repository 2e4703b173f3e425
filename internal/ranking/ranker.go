// Package ranking selects and orders the final product recommendations of a client.
package ranking

import (
	"sort"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

// Ranker applies eligibility filters and business constraints to benefit
// estimates. It is safe for concurrent use.
type Ranker struct {
	policy  *policy.Policy
	catalog *domain.Catalog
	reasons *ReasonWriter
}

// NewRanker creates a ranker bound to a validated policy and catalog.
func NewRanker(p *policy.Policy, catalog *domain.Catalog) *Ranker {
	return &Ranker{policy: p, catalog: catalog, reasons: NewReasonWriter()}
}

type candidate struct {
	est     domain.BenefitEstimate
	product domain.Product
}

// Rank returns at most TopN recommendations with dense ranks starting at 1.
//
// Logic:
//  1. Drop products the client already holds (by code, catalog name, alias or ID).
//  2. Drop gated estimates and estimates below the minimum benefit.
//  3. Sort by benefit desc, confidence desc, catalog ID asc.
//  4. Walk the sorted list, skipping products whose type limit is reached.
//  5. Stop at TopN and attach a deterministic reason to each entry.
func (r *Ranker) Rank(clientCode int64, currentProducts []string, estimates []domain.BenefitEstimate, signals []domain.Signal) []domain.Recommendation {
	held := r.catalog.ResolveAll(currentProducts)

	var candidates []candidate
	for _, est := range estimates {
		product, ok := r.catalog.Get(est.Product)
		if !ok || held[est.Product] {
			continue
		}
		if est.Breakdown.HasFlag(domain.FlagGated) || est.Benefit.LessThan(r.policy.Ranking.MinBenefit) {
			continue
		}
		candidates = append(candidates, candidate{est: est, product: product})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.est.Benefit.Equal(b.est.Benefit) {
			return a.est.Benefit.GreaterThan(b.est.Benefit)
		}
		if !a.est.Confidence.Equal(b.est.Confidence) {
			return a.est.Confidence.GreaterThan(b.est.Confidence)
		}
		return a.product.ID < b.product.ID
	})

	perType := make(map[domain.ProductType]int)
	var out []domain.Recommendation
	for _, c := range candidates {
		if len(out) == r.policy.Ranking.TopN {
			break
		}
		if limit, ok := r.policy.Ranking.TypeLimits[c.product.Type]; ok && perType[c.product.Type] >= limit {
			continue
		}
		perType[c.product.Type]++

		out = append(out, domain.Recommendation{
			ClientCode: clientCode,
			Product:    c.est.Product,
			Rank:       len(out) + 1,
			Benefit:    c.est.Benefit,
			Confidence: c.est.Confidence,
			Reason:     r.reasons.Write(c.product, c.est, domain.SignalsFor(signals, c.est.Product)),
		})
	}
	return out
}
