// Package signals evaluates the per-product predicate tables over a feature set.
package signals

import (
	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

// Detector emits typed signals with strength bands. Thresholds come from
// the policy; detection code holds no business constants.
type Detector struct {
	policy *policy.Policy
}

// NewDetector creates a detector over the predicates of p.
func NewDetector(p *policy.Policy) *Detector {
	return &Detector{policy: p}
}

// Detect returns the union of signals across all products, sorted by
// (product, signal type). Predicates that do not hold emit nothing.
func (d *Detector) Detect(fs domain.FeatureSet) []domain.Signal {
	var out []domain.Signal
	for _, pr := range d.policy.Predicates {
		if s, ok := Evaluate(pr, fs); ok {
			out = append(out, s)
		}
	}
	domain.SortSignals(out)
	return out
}

// DetectProduct returns the signals of a single product.
func (d *Detector) DetectProduct(fs domain.FeatureSet, product domain.ProductCode) []domain.Signal {
	var out []domain.Signal
	for _, pr := range d.policy.PredicatesFor(product) {
		if s, ok := Evaluate(pr, fs); ok {
			out = append(out, s)
		}
	}
	domain.SortSignals(out)
	return out
}

// Evaluate applies one predicate. The trigger is exclusive, the bands inclusive:
// above-predicates hold for value > Trigger and are high at value >= High;
// below-predicates hold for value < Trigger and are high at value <= High.
func Evaluate(pr policy.Predicate, fs domain.FeatureSet) (domain.Signal, bool) {
	if pr.MinCategories > 0 && fs.Get(domain.FeatureCategoryCount).LessThan(decimal.NewFromInt(int64(pr.MinCategories))) {
		return domain.Signal{}, false
	}

	value := fs.Get(pr.Feature)
	var strength domain.Strength
	switch pr.Direction {
	case policy.Above:
		if !value.GreaterThan(pr.Trigger) {
			return domain.Signal{}, false
		}
		strength = band(value.GreaterThanOrEqual(pr.High), value.GreaterThanOrEqual(pr.Medium))
	case policy.Below:
		if !value.LessThan(pr.Trigger) {
			return domain.Signal{}, false
		}
		strength = band(value.LessThanOrEqual(pr.High), value.LessThanOrEqual(pr.Medium))
	default:
		return domain.Signal{}, false
	}

	return domain.Signal{
		ClientCode: fs.ClientCode,
		Product:    pr.Product,
		Type:       pr.Signal,
		Feature:    pr.Feature,
		Value:      value,
		Threshold:  pr.Trigger,
		Strength:   strength,
	}, true
}

func band(high, medium bool) domain.Strength {
	switch {
	case high:
		return domain.StrengthHigh
	case medium:
		return domain.StrengthMedium
	default:
		return domain.StrengthLow
	}
}
