package policy

import (
	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

// DefaultVersion identifies the built-in policy table.
const DefaultVersion = "2025.1"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Default returns the built-in policy.
func Default() *Policy {
	return &Policy{
		Version: DefaultVersion,
		FXRates: map[string]decimal.Decimal{
			"KZT": d("1"),
			"USD": d("450"),
			"EUR": d("500"),
			"RUB": d("5"),
		},
		CardFXFeeRate: d("0.02"),
		CoverageCap:   d("10"),
		Categories: CategoryGroups{
			Travel:  []string{"Путешествия", "Отели", "Такси"},
			Premium: []string{"Кафе и рестораны", "Косметика и Парфюмерия", "Ювелирные украшения"},
			Online:  []string{"Смотрим дома", "Играем дома", "Кино"},
			Jewelry: []string{"Ювелирные украшения"},
		},
		Predicates: defaultPredicates(),
		RequiredSignals: map[domain.ProductCode][]domain.SignalType{
			domain.ProductCashLoan:             {domain.SignalCashFlowGap, domain.SignalLowBalanceCoverage},
			domain.ProductCreditCard:           {domain.SignalTop3Concentration},
			domain.ProductDepositMulticurrency: {domain.SignalFXActivity},
		},
		Products: ProductParams{
			TravelCard: TravelCardParams{
				CashbackRate:       d("0.04"),
				FXLossRecoveryRate: d("1"),
			},
			PremiumCard: PremiumCardParams{
				Tiers: []Tier{
					{Floor: d("0"), Rate: d("0.02")},
					{Floor: d("1000000"), Rate: d("0.03")},
					{Floor: d("6000000"), Rate: d("0.04")},
				},
				PremiumCategoryRate: d("0.04"),
				CashbackCapAnnual:   d("1200000"),
				ATMFeeRate:          d("0.01"),
				ATMSavingsCapAnnual: d("360000"),
			},
			CreditCard: CreditCardParams{
				Top3Rate:            d("0.10"),
				OnlineRate:          d("0.10"),
				GraceMonths:         d("2"),
				MonthlyInterestRate: d("0.02"),
			},
			FXExchange: FXExchangeParams{
				SpreadSavingsRate: d("0.01"),
				OptimizationRate:  d("0.005"),
			},
			CashLoan: CashLoanParams{
				GapMonths:  d("6"),
				MinAmount:  d("100000"),
				MaxAmount:  d("2000000"),
				MarketRate: d("0.25"),
				BankRate:   d("0.12"),

				LargeLoanThreshold: d("1000000"),
				LargeLoanRate:      d("0.21"),
			},
			DepositSavings:       DepositParams{AnnualRate: d("0.165"), BufferMonths: d("2")},
			DepositAccumulative:  DepositParams{AnnualRate: d("0.155"), BufferMonths: d("2")},
			DepositMulticurrency: DepositParams{AnnualRate: d("0.145"), BufferMonths: d("2")},
			Investments: InvestmentParams{
				CommissionSavingsRate: d("0.06"),
				BufferMonths:          d("3"),
			},
			GoldBars: GoldParams{
				AllocationShare:    d("0.10"),
				AllocationCap:      d("5000000"),
				InflationHedgeRate: d("0.05"),
			},
		},
		Confidence: ConfidenceLevels{
			None:   d("0.3"),
			Low:    d("0.5"),
			Medium: d("0.7"),
			High:   d("0.9"),
		},
		Ranking: RankingPolicy{
			MinBenefit: d("50000"),
			TopN:       domain.MaxRecommendations,
			TypeLimits: map[domain.ProductType]int{
				domain.ProductTypeCredit:  1,
				domain.ProductTypeDeposit: 1,
			},
		},
	}
}

func above(product domain.ProductCode, signal domain.SignalType, feature domain.FeatureName, trigger, medium, high string) Predicate {
	return Predicate{
		Product:   product,
		Signal:    signal,
		Feature:   feature,
		Direction: Above,
		Trigger:   d(trigger),
		Medium:    d(medium),
		High:      d(high),
	}
}

func below(product domain.ProductCode, signal domain.SignalType, feature domain.FeatureName, trigger, medium, high string) Predicate {
	p := above(product, signal, feature, trigger, medium, high)
	p.Direction = Below
	return p
}

func defaultPredicates() []Predicate {
	top3 := above(domain.ProductCreditCard, domain.SignalTop3Concentration, domain.FeatureTop3Share, "0.6", "0.6", "0.8")
	top3.MinCategories = 3

	return []Predicate{
		above(domain.ProductTravelCard, domain.SignalTravelSpending, domain.FeatureTravelSpendMonthly, "0", "20000", "50000"),
		above(domain.ProductTravelCard, domain.SignalForeignSpending, domain.FeatureFXLossMonthly, "0", "2000", "5000"),

		above(domain.ProductPremiumCard, domain.SignalHighBalance, domain.FeatureAvgBalance, "1000000", "1000000", "6000000"),
		above(domain.ProductPremiumCard, domain.SignalFrequentATM, domain.FeatureATMFreqMonthly, "5", "5", "10"),
		above(domain.ProductPremiumCard, domain.SignalPremiumSpending, domain.FeaturePremiumSpendMonthly, "50000", "100000", "200000"),

		top3,
		above(domain.ProductCreditCard, domain.SignalOnlineSpending, domain.FeatureOnlineSpendMonthly, "0", "30000", "100000"),

		above(domain.ProductFXExchange, domain.SignalFXActivity, domain.FeatureFXActivityRatio, "0", "0.05", "0.1"),
		above(domain.ProductFXExchange, domain.SignalForeignSpending, domain.FeatureForeignSpendMonthly, "0", "50000", "100000"),

		above(domain.ProductCashLoan, domain.SignalCashFlowGap, domain.FeatureCashFlowGapMonthly, "0", "100000", "500000"),
		below(domain.ProductCashLoan, domain.SignalLowBalanceCoverage, domain.FeatureBalanceStability, "2", "2", "1"),

		below(domain.ProductDepositSavings, domain.SignalStableSpending, domain.FeatureSpendVolatility, "0.3", "0.3", "0.15"),
		above(domain.ProductDepositSavings, domain.SignalIdleBalance, domain.FeatureAvgBalance, "1000000", "1000000", "6000000"),
		above(domain.ProductDepositAccumulative, domain.SignalIdleBalance, domain.FeatureAvgBalance, "1000000", "1000000", "6000000"),
		above(domain.ProductDepositAccumulative, domain.SignalDepositTopups, domain.FeatureDepositTopupMonthly, "0", "50000", "200000"),
		above(domain.ProductDepositMulticurrency, domain.SignalIdleBalance, domain.FeatureAvgBalance, "1000000", "1000000", "6000000"),
		above(domain.ProductDepositMulticurrency, domain.SignalFXActivity, domain.FeatureFXActivityRatio, "0.05", "0.05", "0.1"),

		above(domain.ProductInvestments, domain.SignalInvestActivity, domain.FeatureInvestFlowMonthly, "0", "50000", "200000"),
		above(domain.ProductInvestments, domain.SignalIdleBalance, domain.FeatureAvgBalance, "1000000", "1000000", "6000000"),

		above(domain.ProductGoldBars, domain.SignalHighBalance, domain.FeatureAvgBalance, "2000000", "2000000", "5000000"),
		above(domain.ProductGoldBars, domain.SignalJewelrySpending, domain.FeatureJewelrySpendMonthly, "0", "20000", "100000"),
	}
}
