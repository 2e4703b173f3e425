package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

var one = decimal.NewFromInt(1)

// Validate checks the policy against the catalog. Any problem is returned as
// a *domain.ConfigurationError and must stop the run before clients are processed.
func (p *Policy) Validate(catalog *domain.Catalog) error {
	if p.Version == "" {
		return configErr("version", "is required")
	}
	if err := p.validateFX(); err != nil {
		return err
	}
	if catalog == nil {
		return configErr("catalog", "is required")
	}
	for _, code := range domain.AllProductCodes() {
		if _, err := catalog.Require(code); err != nil {
			return err
		}
	}
	if err := p.validatePredicates(); err != nil {
		return err
	}
	if err := p.validateRequiredSignals(); err != nil {
		return err
	}
	if err := p.validateProducts(); err != nil {
		return err
	}
	if err := p.validateConfidence(); err != nil {
		return err
	}
	return p.validateRanking()
}

func (p *Policy) validateFX() error {
	kzt, ok := p.FXRates[domain.CurrencyKZT]
	if !ok || !kzt.Equal(one) {
		return configErr("fx_rates", "KZT rate must be 1")
	}
	for cur, rate := range p.FXRates {
		if !rate.IsPositive() {
			return configErr("fx_rates."+cur, "must be positive")
		}
	}
	if err := checkRate("card_fx_fee_rate", p.CardFXFeeRate); err != nil {
		return err
	}
	if !p.CoverageCap.IsPositive() {
		return configErr("balance_coverage_cap", "must be positive")
	}
	return nil
}

// validateRequiredSignals rejects gates that can never open: every required
// signal must be emitted by at least one predicate of the same product.
func (p *Policy) validateRequiredSignals() error {
	for product := range p.RequiredSignals {
		if !product.Valid() {
			return configErr("required_signals", fmt.Sprintf("unknown product %q", product))
		}
	}
	for _, product := range domain.AllProductCodes() {
		required, ok := p.RequiredSignals[product]
		if !ok {
			continue
		}
		field := "required_signals." + string(product)
		if len(required) == 0 {
			return configErr(field, "is empty")
		}
		emitted := make(map[domain.SignalType]bool)
		for _, pr := range p.PredicatesFor(product) {
			emitted[pr.Signal] = true
		}
		for _, sig := range required {
			if !emitted[sig] {
				return configErr(field, fmt.Sprintf("signal %q is not emitted by any %s predicate", sig, product))
			}
		}
	}
	return nil
}

func (p *Policy) validatePredicates() error {
	schema := make(map[domain.FeatureName]bool)
	for _, name := range domain.FeatureSchema() {
		schema[name] = true
	}
	seen := make(map[string]bool)
	for i, pr := range p.Predicates {
		field := fmt.Sprintf("predicates[%d]", i)
		if !pr.Product.Valid() {
			return configErr(field, fmt.Sprintf("unknown product %q", pr.Product))
		}
		if pr.Signal == "" {
			return configErr(field, "signal is required")
		}
		if !schema[pr.Feature] {
			return configErr(field, fmt.Sprintf("unknown feature %q", pr.Feature))
		}
		key := string(pr.Product) + "/" + string(pr.Signal)
		if seen[key] {
			return configErr(field, "duplicate predicate "+key)
		}
		seen[key] = true

		switch pr.Direction {
		case Above:
			if pr.Medium.GreaterThan(pr.High) {
				return configErr(field, "medium band above high band")
			}
		case Below:
			if pr.Medium.LessThan(pr.High) {
				return configErr(field, "medium band below high band")
			}
		default:
			return configErr(field, fmt.Sprintf("unknown direction %q", pr.Direction))
		}
		if pr.MinCategories < 0 {
			return configErr(field, "min_categories is negative")
		}
	}
	return nil
}

func (p *Policy) validateProducts() error {
	pp := p.Products
	if err := checkTiers("products.premium_card.tiers", pp.PremiumCard.Tiers); err != nil {
		return err
	}
	rates := []struct {
		field string
		v     decimal.Decimal
	}{
		{"products.travel_card.cashback_rate", pp.TravelCard.CashbackRate},
		{"products.travel_card.fx_loss_recovery_rate", pp.TravelCard.FXLossRecoveryRate},
		{"products.premium_card.premium_category_rate", pp.PremiumCard.PremiumCategoryRate},
		{"products.premium_card.atm_fee_rate", pp.PremiumCard.ATMFeeRate},
		{"products.credit_card.top3_rate", pp.CreditCard.Top3Rate},
		{"products.credit_card.online_rate", pp.CreditCard.OnlineRate},
		{"products.credit_card.monthly_interest_rate", pp.CreditCard.MonthlyInterestRate},
		{"products.fx_exchange.spread_savings_rate", pp.FXExchange.SpreadSavingsRate},
		{"products.fx_exchange.optimization_rate", pp.FXExchange.OptimizationRate},
		{"products.cash_loan.market_rate", pp.CashLoan.MarketRate},
		{"products.cash_loan.bank_rate", pp.CashLoan.BankRate},
		{"products.cash_loan.large_loan_rate", pp.CashLoan.LargeLoanRate},
		{"products.deposit_savings.annual_rate", pp.DepositSavings.AnnualRate},
		{"products.deposit_accumulative.annual_rate", pp.DepositAccumulative.AnnualRate},
		{"products.deposit_multicurrency.annual_rate", pp.DepositMulticurrency.AnnualRate},
		{"products.investments.commission_savings_rate", pp.Investments.CommissionSavingsRate},
		{"products.gold_bars.allocation_share", pp.GoldBars.AllocationShare},
		{"products.gold_bars.inflation_hedge_rate", pp.GoldBars.InflationHedgeRate},
	}
	for _, r := range rates {
		if err := checkRate(r.field, r.v); err != nil {
			return err
		}
	}

	amounts := []struct {
		field string
		v     decimal.Decimal
	}{
		{"products.premium_card.cashback_cap_annual", pp.PremiumCard.CashbackCapAnnual},
		{"products.premium_card.atm_savings_cap_annual", pp.PremiumCard.ATMSavingsCapAnnual},
		{"products.credit_card.grace_months", pp.CreditCard.GraceMonths},
		{"products.cash_loan.gap_months", pp.CashLoan.GapMonths},
		{"products.cash_loan.min_amount", pp.CashLoan.MinAmount},
		{"products.cash_loan.max_amount", pp.CashLoan.MaxAmount},
		{"products.cash_loan.large_loan_threshold", pp.CashLoan.LargeLoanThreshold},
		{"products.deposit_savings.buffer_months", pp.DepositSavings.BufferMonths},
		{"products.deposit_accumulative.buffer_months", pp.DepositAccumulative.BufferMonths},
		{"products.deposit_multicurrency.buffer_months", pp.DepositMulticurrency.BufferMonths},
		{"products.investments.buffer_months", pp.Investments.BufferMonths},
		{"products.gold_bars.allocation_cap", pp.GoldBars.AllocationCap},
	}
	for _, a := range amounts {
		if a.v.IsNegative() {
			return configErr(a.field, "must not be negative")
		}
	}
	if pp.CashLoan.MinAmount.GreaterThan(pp.CashLoan.MaxAmount) {
		return configErr("products.cash_loan", "min_amount exceeds max_amount")
	}
	return nil
}

func (p *Policy) validateConfidence() error {
	c := p.Confidence
	levels := []decimal.Decimal{c.None, c.Low, c.Medium, c.High}
	for i, v := range levels {
		if err := checkRate("confidence", v); err != nil {
			return err
		}
		if i > 0 && v.LessThan(levels[i-1]) {
			return configErr("confidence", "levels must not decrease with strength")
		}
	}
	return nil
}

func (p *Policy) validateRanking() error {
	r := p.Ranking
	if r.MinBenefit.IsNegative() {
		return configErr("ranking.min_benefit", "must not be negative")
	}
	if r.TopN < 1 || r.TopN > domain.MaxRecommendations {
		return configErr("ranking.top_n", fmt.Sprintf("must be between 1 and %d", domain.MaxRecommendations))
	}
	for typ, limit := range r.TypeLimits {
		if limit < 1 {
			return configErr("ranking.type_limits."+string(typ), "must be at least 1")
		}
	}
	return nil
}

func checkRate(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(one) {
		return configErr(field, fmt.Sprintf("rate %s outside [0, 1]", v))
	}
	return nil
}

func checkTiers(field string, tiers []Tier) error {
	if len(tiers) == 0 {
		return configErr(field, "at least one tier is required")
	}
	for i, t := range tiers {
		if err := checkRate(field, t.Rate); err != nil {
			return err
		}
		if i > 0 && !t.Floor.GreaterThan(tiers[i-1].Floor) {
			return configErr(field, "tier floors must be strictly ascending")
		}
	}
	return nil
}

func configErr(field, reason string) error {
	return &domain.ConfigurationError{Field: field, Reason: reason}
}
