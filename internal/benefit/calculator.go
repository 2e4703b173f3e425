// Package benefit computes the potential annual benefit of each product for
// one client from its feature set and detected signals.
package benefit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

var monthsPerYear = decimal.NewFromInt(12)

// Calculator evaluates the ten product formulas. It is safe for concurrent use.
type Calculator struct {
	policy  *policy.Policy
	catalog *domain.Catalog
}

// NewCalculator creates a calculator bound to a validated policy and catalog.
func NewCalculator(p *policy.Policy, catalog *domain.Catalog) *Calculator {
	return &Calculator{policy: p, catalog: catalog}
}

// CalculateAll returns one estimate per catalog product, in catalog code order.
func (c *Calculator) CalculateAll(fs domain.FeatureSet, signals []domain.Signal) ([]domain.BenefitEstimate, error) {
	codes := domain.AllProductCodes()
	out := make([]domain.BenefitEstimate, 0, len(codes))
	for _, code := range codes {
		est, err := c.Calculate(code, fs, signals)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	return out, nil
}

// Calculate applies the formula of one product.
//
// Logic:
//  1. Resolve the product in the catalog; a missing product is a ConfigurationError.
//  2. Evaluate the product formula, recording every term and consumed feature.
//  3. Force the benefit to zero when a required signal is absent (flag "gated").
//  4. Clamp a negative total to zero (flag "clamped:total").
//  5. Derive confidence from the strongest signal of the product.
func (c *Calculator) Calculate(code domain.ProductCode, fs domain.FeatureSet, signals []domain.Signal) (domain.BenefitEstimate, error) {
	if _, err := c.catalog.Require(code); err != nil {
		return domain.BenefitEstimate{}, err
	}

	b := &builder{fs: fs}
	var benefitType domain.BenefitType
	pp := c.policy.Products

	switch code {
	case domain.ProductTravelCard:
		benefitType = travelCard(b, pp.TravelCard)
	case domain.ProductPremiumCard:
		benefitType = premiumCard(b, pp.PremiumCard)
	case domain.ProductCreditCard:
		benefitType = creditCard(b, pp.CreditCard)
	case domain.ProductFXExchange:
		benefitType = fxExchange(b, pp.FXExchange)
	case domain.ProductCashLoan:
		benefitType = cashLoan(b, pp.CashLoan)
	case domain.ProductDepositSavings:
		benefitType = deposit(b, pp.DepositSavings)
	case domain.ProductDepositAccumulative:
		benefitType = deposit(b, pp.DepositAccumulative)
	case domain.ProductDepositMulticurrency:
		benefitType = deposit(b, pp.DepositMulticurrency)
	case domain.ProductInvestments:
		benefitType = investments(b, pp.Investments)
	case domain.ProductGoldBars:
		benefitType = goldBars(b, pp.GoldBars)
	default:
		return domain.BenefitEstimate{}, &domain.ConfigurationError{
			Field:  "products",
			Reason: fmt.Sprintf("no formula for product %q", code),
		}
	}

	productSignals := domain.SignalsFor(signals, code)

	total := b.total()
	if !hasRequired(productSignals, c.policy.RequiredSignals[code]) {
		b.flag(domain.FlagGated)
		total = decimal.Zero
	}
	if total.IsNegative() {
		b.flag(domain.FlagClampedTotal)
		total = decimal.Zero
	}

	strength := domain.StrengthNone
	if s, ok := domain.Strongest(productSignals); ok {
		strength = s.Strength
	}

	return domain.BenefitEstimate{
		ClientCode:  fs.ClientCode,
		Product:     code,
		Benefit:     total,
		BenefitType: benefitType,
		Confidence:  c.policy.Confidence.For(strength),
		Breakdown:   b.bd,
	}, nil
}

// hasRequired reports whether any required signal is present. An empty
// requirement list means the product is not gated.
func hasRequired(signals []domain.Signal, required []domain.SignalType) bool {
	if len(required) == 0 {
		return true
	}
	for _, s := range signals {
		for _, r := range required {
			if s.Type == r {
				return true
			}
		}
	}
	return false
}

// builder accumulates a breakdown while a formula runs.
type builder struct {
	fs domain.FeatureSet
	bd domain.Breakdown
}

// input reads a feature and records it.
func (b *builder) input(name domain.FeatureName) decimal.Decimal {
	v := b.fs.Get(name)
	b.bd.Inputs = append(b.bd.Inputs, domain.FeatureInput{Name: name, Value: v})
	return v
}

// annual reads a monthly feature and scales it to a year.
func (b *builder) annual(name domain.FeatureName) decimal.Decimal {
	return b.input(name).Mul(monthsPerYear)
}

// term appends rate × base as an additive term and returns the amount.
func (b *builder) term(name string, rate, base decimal.Decimal) decimal.Decimal {
	amount := rate.Mul(base).Round(2)
	b.bd.Terms = append(b.bd.Terms, domain.BenefitTerm{Name: name, Amount: amount, Rate: rate, Base: base})
	return amount
}

// nonNegative clamps v to zero and flags the named input when v < 0.
func (b *builder) nonNegative(name string, v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		b.flag(domain.FlagClampPrefix + name)
		return decimal.Zero
	}
	return v
}

func (b *builder) flag(f string) {
	if !b.bd.HasFlag(f) {
		b.bd.Flags = append(b.bd.Flags, f)
	}
}

func (b *builder) total() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range b.bd.Terms {
		sum = sum.Add(t.Amount)
	}
	return sum
}
