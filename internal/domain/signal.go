package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SignalType names a detected behavioral pattern.
type SignalType string

const (
	SignalTravelSpending     SignalType = "travel_spending"
	SignalForeignSpending    SignalType = "foreign_spending"
	SignalHighBalance        SignalType = "high_balance"
	SignalFrequentATM        SignalType = "frequent_atm"
	SignalPremiumSpending    SignalType = "premium_spending"
	SignalTop3Concentration  SignalType = "top3_concentration"
	SignalOnlineSpending     SignalType = "online_spending"
	SignalFXActivity         SignalType = "fx_activity"
	SignalCashFlowGap        SignalType = "cash_flow_gap"
	SignalLowBalanceCoverage SignalType = "low_balance_coverage"
	SignalStableSpending     SignalType = "stable_spending"
	SignalIdleBalance        SignalType = "idle_balance"
	SignalDepositTopups      SignalType = "deposit_topups"
	SignalInvestActivity     SignalType = "invest_activity"
	SignalJewelrySpending    SignalType = "jewelry_spending"
)

// Strength is the band a triggering value falls into.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthLow
	StrengthMedium
	StrengthHigh
)

// String returns the lowercase band name.
func (s Strength) String() string {
	switch s {
	case StrengthLow:
		return "low"
	case StrengthMedium:
		return "medium"
	case StrengthHigh:
		return "high"
	default:
		return "none"
	}
}

// ParseStrength is the inverse of String.
func ParseStrength(s string) Strength {
	switch s {
	case "low":
		return StrengthLow
	case "medium":
		return StrengthMedium
	case "high":
		return StrengthHigh
	default:
		return StrengthNone
	}
}

// Signal is one triggered predicate for a (client, product) pair.
// Unique by (ClientCode, Product, Type).
type Signal struct {
	ClientCode int64
	Product    ProductCode
	Type       SignalType
	Feature    FeatureName
	Value      decimal.Decimal // triggering feature value
	Threshold  decimal.Decimal // trigger threshold that was crossed
	Strength   Strength
}

// SortSignals orders signals by product, then type.
func SortSignals(signals []Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Product != signals[j].Product {
			return signals[i].Product < signals[j].Product
		}
		return signals[i].Type < signals[j].Type
	})
}

// SignalsFor returns the signals of one product, preserving order.
func SignalsFor(signals []Signal, product ProductCode) []Signal {
	var out []Signal
	for _, s := range signals {
		if s.Product == product {
			out = append(out, s)
		}
	}
	return out
}

// Strongest returns the signal with the highest strength; ties go to the
// larger value, then the earlier signal. ok is false for an empty slice.
func Strongest(signals []Signal) (Signal, bool) {
	if len(signals) == 0 {
		return Signal{}, false
	}
	best := signals[0]
	for _, s := range signals[1:] {
		if s.Strength > best.Strength || (s.Strength == best.Strength && s.Value.GreaterThan(best.Value)) {
			best = s
		}
	}
	return best, true
}
