package domain

import "github.com/shopspring/decimal"

// BenefitType describes what kind of upside a product offers.
type BenefitType string

const (
	BenefitCashback        BenefitType = "cashback"
	BenefitFeeSavings      BenefitType = "fee_savings"
	BenefitInterestSavings BenefitType = "interest_savings"
	BenefitInterestIncome  BenefitType = "interest_income"
	BenefitInflationHedge  BenefitType = "inflation_hedge"
)

// Breakdown flags.
const (
	FlagGated        = "gated"          // required signal absent, benefit forced to 0
	FlagClampedTotal = "clamped:total"  // negative total clamped to 0
	FlagClampPrefix  = "clamped:"       // negative input term clamped to 0
	FlagCapApplied   = "cap_applied"    // a configured cap limited the result
	FlagBelowMinimum = "below_minimum"  // input below the product's minimum amount
	FlagFallbackUsed = "fallback_input" // a fallback feature replaced a zero input
)

// BenefitTerm is one additive term of a benefit formula.
type BenefitTerm struct {
	Name   string
	Amount decimal.Decimal // annual KZT
	Rate   decimal.Decimal // rate applied, zero when not rate-based
	Base   decimal.Decimal // amount the rate was applied to
}

// FeatureInput records a feature value consumed by a formula.
type FeatureInput struct {
	Name  FeatureName
	Value decimal.Decimal
}

// Breakdown captures how a benefit was computed.
type Breakdown struct {
	Terms  []BenefitTerm  // formula order
	Inputs []FeatureInput // formula order
	Flags  []string
}

// HasFlag reports whether flag is set.
func (b Breakdown) HasFlag(flag string) bool {
	for _, f := range b.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// DominantTerm returns the term with the largest amount, first in formula order on ties.
func (b Breakdown) DominantTerm() (BenefitTerm, bool) {
	if len(b.Terms) == 0 {
		return BenefitTerm{}, false
	}
	best := b.Terms[0]
	for _, t := range b.Terms[1:] {
		if t.Amount.GreaterThan(best.Amount) {
			best = t
		}
	}
	return best, true
}

// BenefitEstimate is the potential annual benefit of one product for one client.
// Exactly one per (client, product) per run.
type BenefitEstimate struct {
	ClientCode  int64
	Product     ProductCode
	Benefit     decimal.Decimal // annual KZT, always >= 0
	BenefitType BenefitType
	Confidence  decimal.Decimal // [0, 1]
	Breakdown   Breakdown
}
