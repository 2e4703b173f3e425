package benefit

import (
	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

// Term names used in breakdowns.
const (
	TermTravelCashback    = "travel_cashback"
	TermFXSavings         = "fx_savings"
	TermTierCashback      = "tier_cashback"
	TermPremiumCashback   = "premium_category_cashback"
	TermATMFeeSavings     = "atm_fee_savings"
	TermTop3Cashback      = "top3_category_cashback"
	TermOnlineCashback    = "online_services_cashback"
	TermInterestFree      = "interest_free_period"
	TermSpreadSavings     = "spread_savings"
	TermFXOptimization    = "fx_optimization"
	TermInterestSavings   = "interest_savings"
	TermDepositInterest   = "deposit_interest"
	TermCommissionSavings = "commission_savings"
	TermInflationHedge    = "inflation_hedge"
)

// travelCard: cashback_rate × travel_annual + fx_loss_annual × recovery_rate.
func travelCard(b *builder, p policy.TravelCardParams) domain.BenefitType {
	b.term(TermTravelCashback, p.CashbackRate, b.annual(domain.FeatureTravelSpendMonthly))
	b.term(TermFXSavings, p.FXLossRecoveryRate, b.annual(domain.FeatureFXLossMonthly))
	return domain.BenefitCashback
}

// premiumCard: tier_rate(balance) × total_annual + premium_rate × premium_annual,
// capped as a whole with proportional scaling, plus capped ATM fee savings.
func premiumCard(b *builder, p policy.PremiumCardParams) domain.BenefitType {
	balance := b.nonNegative("balance", b.input(domain.FeatureAvgBalance))
	rate := policy.TierRate(p.Tiers, balance)

	spendAnnual := b.annual(domain.FeatureTotalSpendMonthly)
	premiumAnnual := b.annual(domain.FeaturePremiumSpendMonthly)
	base := rate.Mul(spendAnnual).Round(2)
	extra := p.PremiumCategoryRate.Mul(premiumAnnual).Round(2)
	if sum := base.Add(extra); sum.GreaterThan(p.CashbackCapAnnual) {
		b.flag(domain.FlagCapApplied)
		base = base.Mul(p.CashbackCapAnnual).DivRound(sum, 2)
		extra = p.CashbackCapAnnual.Sub(base)
	}
	b.bd.Terms = append(b.bd.Terms,
		domain.BenefitTerm{Name: TermTierCashback, Amount: base, Rate: rate, Base: spendAnnual},
		domain.BenefitTerm{Name: TermPremiumCashback, Amount: extra, Rate: p.PremiumCategoryRate, Base: premiumAnnual},
	)

	atmAnnual := b.annual(domain.FeatureATMWithdrawalMonthly)
	atm := p.ATMFeeRate.Mul(atmAnnual).Round(2)
	if atm.GreaterThan(p.ATMSavingsCapAnnual) {
		b.flag(domain.FlagCapApplied)
		atm = p.ATMSavingsCapAnnual
	}
	b.bd.Terms = append(b.bd.Terms, domain.BenefitTerm{Name: TermATMFeeSavings, Amount: atm, Rate: p.ATMFeeRate, Base: atmAnnual})
	return domain.BenefitCashback
}

// creditCard: top3_rate × top3_annual + online_rate × online_annual + interest-free value.
// Online categories already in the top 3 are not counted twice.
func creditCard(b *builder, p policy.CreditCardParams) domain.BenefitType {
	b.term(TermTop3Cashback, p.Top3Rate, b.annual(domain.FeatureTop3SpendMonthly))
	b.term(TermOnlineCashback, p.OnlineRate, b.annual(domain.FeatureOnlineOutsideTop3Monthly))
	graceBase := b.input(domain.FeatureTotalSpendMonthly).Mul(p.GraceMonths)
	b.term(TermInterestFree, p.MonthlyInterestRate, graceBase)
	return domain.BenefitCashback
}

// fxExchange: fx_volume_annual × (spread_savings_rate + optimization_rate).
// Foreign card spend stands in for the volume when there are no FX transfers.
func fxExchange(b *builder, p policy.FXExchangeParams) domain.BenefitType {
	volume := b.annual(domain.FeatureFXVolumeMonthly)
	if volume.IsZero() {
		if foreign := b.annual(domain.FeatureForeignSpendMonthly); foreign.IsPositive() {
			b.flag(domain.FlagFallbackUsed)
			volume = foreign
		}
	}
	b.term(TermSpreadSavings, p.SpreadSavingsRate, volume)
	b.term(TermFXOptimization, p.OptimizationRate, volume)
	return domain.BenefitFeeSavings
}

// cashLoan: loan_amount × (market_rate − bank_rate), where loan_amount covers
// GapMonths of the monthly cash-flow gap within [MinAmount, MaxAmount].
func cashLoan(b *builder, p policy.CashLoanParams) domain.BenefitType {
	loan := b.input(domain.FeatureCashFlowGapMonthly).Mul(p.GapMonths)
	if loan.GreaterThan(p.MaxAmount) {
		b.flag(domain.FlagCapApplied)
		loan = p.MaxAmount
	}
	if loan.LessThan(p.MinAmount) {
		b.flag(domain.FlagBelowMinimum)
		loan = decimal.Zero
	}

	bankRate := p.BankRate
	if loan.GreaterThan(p.LargeLoanThreshold) {
		bankRate = p.LargeLoanRate
	}
	spread := b.nonNegative("rate_spread", p.MarketRate.Sub(bankRate))
	b.term(TermInterestSavings, spread, loan)
	return domain.BenefitInterestSavings
}

// deposit: (balance − monthly_spend × buffer_months) × annual_rate.
func deposit(b *builder, p policy.DepositParams) domain.BenefitType {
	available := b.input(domain.FeatureAvgBalance).Sub(b.input(domain.FeatureTotalSpendMonthly).Mul(p.BufferMonths))
	available = b.nonNegative("available_funds", available)
	b.term(TermDepositInterest, p.AnnualRate, available)
	return domain.BenefitInterestIncome
}

// investments: (balance − monthly_spend × buffer_months) × commission_savings_rate.
func investments(b *builder, p policy.InvestmentParams) domain.BenefitType {
	investable := b.input(domain.FeatureAvgBalance).Sub(b.input(domain.FeatureTotalSpendMonthly).Mul(p.BufferMonths))
	investable = b.nonNegative("investable_funds", investable)
	b.term(TermCommissionSavings, p.CommissionSavingsRate, investable)
	return domain.BenefitFeeSavings
}

// goldBars: min(balance × allocation_share, allocation_cap) × inflation_hedge_rate.
func goldBars(b *builder, p policy.GoldParams) domain.BenefitType {
	balance := b.nonNegative("balance", b.input(domain.FeatureAvgBalance))
	allocation := balance.Mul(p.AllocationShare)
	if allocation.GreaterThan(p.AllocationCap) {
		b.flag(domain.FlagCapApplied)
		allocation = p.AllocationCap
	}
	b.term(TermInflationHedge, p.InflationHedgeRate, allocation)
	return domain.BenefitInflationHedge
}
