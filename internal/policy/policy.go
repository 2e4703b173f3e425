// Package policy holds the business configuration of the recommendation
// pipeline: category groups, FX table, signal predicates, product formula
// parameters, confidence levels and ranking constraints.
package policy

import (
	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

// Direction selects how a predicate compares a feature with its thresholds.
type Direction string

const (
	Above Direction = "above" // holds when value > trigger, stronger when larger
	Below Direction = "below" // holds when value < trigger, stronger when smaller
)

// Policy is loaded once per run and never mutated afterwards.
type Policy struct {
	Version string `yaml:"version"`

	// FXRates converts one unit of a currency into KZT.
	FXRates map[string]decimal.Decimal `yaml:"fx_rates"`
	// CardFXFeeRate is the conversion fee charged on foreign card spend.
	CardFXFeeRate decimal.Decimal `yaml:"card_fx_fee_rate"`
	// CoverageCap bounds balance_stability_ratio and is used when spend is zero.
	CoverageCap decimal.Decimal `yaml:"balance_coverage_cap"`

	Categories      CategoryGroups                             `yaml:"categories"`
	Predicates      []Predicate                                `yaml:"predicates"`
	RequiredSignals map[domain.ProductCode][]domain.SignalType `yaml:"required_signals"`
	Products        ProductParams                              `yaml:"products"`
	Confidence      ConfidenceLevels                           `yaml:"confidence"`
	Ranking         RankingPolicy                              `yaml:"ranking"`
}

// CategoryGroups lists the spending categories behind grouped features.
type CategoryGroups struct {
	Travel  []string `yaml:"travel"`
	Premium []string `yaml:"premium"`
	Online  []string `yaml:"online"`
	Jewelry []string `yaml:"jewelry"`
}

// Predicate is one named signal rule of one product.
type Predicate struct {
	Product   domain.ProductCode `yaml:"product"`
	Signal    domain.SignalType  `yaml:"signal"`
	Feature   domain.FeatureName `yaml:"feature"`
	Direction Direction          `yaml:"direction"`
	Trigger   decimal.Decimal    `yaml:"trigger"`
	Medium    decimal.Decimal    `yaml:"medium"`
	High      decimal.Decimal    `yaml:"high"`
	// MinCategories requires at least this many spend categories.
	MinCategories int `yaml:"min_categories,omitempty"`
}

// Tier maps a lower bound to a rate. Tiers are sorted by Floor ascending.
type Tier struct {
	Floor decimal.Decimal `yaml:"floor"`
	Rate  decimal.Decimal `yaml:"rate"`
}

// ProductParams holds the formula parameters of every product.
type ProductParams struct {
	TravelCard           TravelCardParams  `yaml:"travel_card"`
	PremiumCard          PremiumCardParams `yaml:"premium_card"`
	CreditCard           CreditCardParams  `yaml:"credit_card"`
	FXExchange           FXExchangeParams  `yaml:"fx_exchange"`
	CashLoan             CashLoanParams    `yaml:"cash_loan"`
	DepositSavings       DepositParams     `yaml:"deposit_savings"`
	DepositAccumulative  DepositParams     `yaml:"deposit_accumulative"`
	DepositMulticurrency DepositParams     `yaml:"deposit_multicurrency"`
	Investments          InvestmentParams  `yaml:"investments"`
	GoldBars             GoldParams        `yaml:"gold_bars"`
}

type TravelCardParams struct {
	CashbackRate       decimal.Decimal `yaml:"cashback_rate"`
	FXLossRecoveryRate decimal.Decimal `yaml:"fx_loss_recovery_rate"`
}

type PremiumCardParams struct {
	Tiers               []Tier          `yaml:"tiers"`
	PremiumCategoryRate decimal.Decimal `yaml:"premium_category_rate"`
	CashbackCapAnnual   decimal.Decimal `yaml:"cashback_cap_annual"`
	ATMFeeRate          decimal.Decimal `yaml:"atm_fee_rate"`
	ATMSavingsCapAnnual decimal.Decimal `yaml:"atm_savings_cap_annual"`
}

type CreditCardParams struct {
	Top3Rate            decimal.Decimal `yaml:"top3_rate"`
	OnlineRate          decimal.Decimal `yaml:"online_rate"`
	GraceMonths         decimal.Decimal `yaml:"grace_months"`
	MonthlyInterestRate decimal.Decimal `yaml:"monthly_interest_rate"`
}

type FXExchangeParams struct {
	SpreadSavingsRate decimal.Decimal `yaml:"spread_savings_rate"`
	OptimizationRate  decimal.Decimal `yaml:"optimization_rate"`
}

type CashLoanParams struct {
	GapMonths  decimal.Decimal `yaml:"gap_months"`
	MinAmount  decimal.Decimal `yaml:"min_amount"`
	MaxAmount  decimal.Decimal `yaml:"max_amount"`
	MarketRate decimal.Decimal `yaml:"market_rate"`
	BankRate   decimal.Decimal `yaml:"bank_rate"`
	// Loans above LargeLoanThreshold are priced at LargeLoanRate.
	LargeLoanThreshold decimal.Decimal `yaml:"large_loan_threshold"`
	LargeLoanRate      decimal.Decimal `yaml:"large_loan_rate"`
}

type DepositParams struct {
	AnnualRate   decimal.Decimal `yaml:"annual_rate"`
	BufferMonths decimal.Decimal `yaml:"buffer_months"`
}

type InvestmentParams struct {
	CommissionSavingsRate decimal.Decimal `yaml:"commission_savings_rate"`
	BufferMonths          decimal.Decimal `yaml:"buffer_months"`
}

type GoldParams struct {
	AllocationShare    decimal.Decimal `yaml:"allocation_share"`
	AllocationCap      decimal.Decimal `yaml:"allocation_cap"`
	InflationHedgeRate decimal.Decimal `yaml:"inflation_hedge_rate"`
}

// ConfidenceLevels maps the strongest signal of a product to a confidence score.
type ConfidenceLevels struct {
	None   decimal.Decimal `yaml:"none"`
	Low    decimal.Decimal `yaml:"low"`
	Medium decimal.Decimal `yaml:"medium"`
	High   decimal.Decimal `yaml:"high"`
}

// For returns the confidence of a strength band.
func (c ConfidenceLevels) For(s domain.Strength) decimal.Decimal {
	switch s {
	case domain.StrengthHigh:
		return c.High
	case domain.StrengthMedium:
		return c.Medium
	case domain.StrengthLow:
		return c.Low
	default:
		return c.None
	}
}

// RankingPolicy constrains the final recommendation list.
type RankingPolicy struct {
	MinBenefit decimal.Decimal            `yaml:"min_benefit"`
	TopN       int                        `yaml:"top_n"`
	TypeLimits map[domain.ProductType]int `yaml:"type_limits"`
}

// PredicatesFor returns the predicates of one product in policy order.
func (p *Policy) PredicatesFor(product domain.ProductCode) []Predicate {
	var out []Predicate
	for _, pr := range p.Predicates {
		if pr.Product == product {
			out = append(out, pr)
		}
	}
	return out
}

// ToKZT converts an amount in currency to KZT. ok is false for an unknown currency.
func (p *Policy) ToKZT(amount decimal.Decimal, currency string) (decimal.Decimal, bool) {
	if currency == "" {
		currency = domain.CurrencyKZT
	}
	rate, ok := p.FXRates[currency]
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(rate), true
}

// TierRate returns the rate of the highest tier whose floor is <= value.
// Values below the first floor get the first tier's rate.
func TierRate(tiers []Tier, value decimal.Decimal) decimal.Decimal {
	if len(tiers) == 0 {
		return decimal.Zero
	}
	rate := tiers[0].Rate
	for _, t := range tiers {
		if value.GreaterThanOrEqual(t.Floor) {
			rate = t.Rate
		}
	}
	return rate
}
