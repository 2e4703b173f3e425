package domain

import "github.com/shopspring/decimal"

// FeatureSchemaVersion identifies the feature layout produced by the extractor.
const FeatureSchemaVersion = "v1"

// FeatureName is a named numeric feature.
type FeatureName string

// Feature schema v1. Monetary features are KZT per month unless noted.
const (
	FeatureTotalSpendMonthly        FeatureName = "total_spend_monthly"
	FeatureTravelSpendMonthly       FeatureName = "travel_spend_monthly"
	FeaturePremiumSpendMonthly      FeatureName = "premium_category_spend_monthly"
	FeatureOnlineSpendMonthly       FeatureName = "online_services_spend_monthly"
	FeatureJewelrySpendMonthly      FeatureName = "jewelry_spend_monthly"
	FeatureTop3SpendMonthly         FeatureName = "top3_category_spend_monthly"
	FeatureTop3Share                FeatureName = "top3_category_share"
	FeatureOnlineOutsideTop3Monthly FeatureName = "online_outside_top3_monthly"
	FeatureCategoryCount            FeatureName = "category_count"
	FeatureForeignSpendMonthly      FeatureName = "foreign_spend_monthly"
	FeatureFXLossMonthly            FeatureName = "fx_loss_monthly"
	FeatureFXVolumeMonthly          FeatureName = "fx_volume_monthly"
	FeatureFXActivityRatio          FeatureName = "fx_activity_ratio"
	FeatureATMWithdrawalMonthly     FeatureName = "atm_withdrawal_monthly"
	FeatureATMFreqMonthly           FeatureName = "atm_freq_monthly"
	FeatureP2POutMonthly            FeatureName = "p2p_out_monthly"
	FeatureInflowMonthly            FeatureName = "inflow_monthly"
	FeatureOutflowMonthly           FeatureName = "outflow_monthly"
	FeatureCashFlowRatio            FeatureName = "cash_flow_ratio"
	FeatureCashFlowGapMonthly       FeatureName = "cash_flow_gap_monthly"
	FeatureAvgBalance               FeatureName = "avg_balance" // not normalized
	FeatureBalanceStability         FeatureName = "balance_stability_ratio"
	FeatureSpendVolatility          FeatureName = "spend_volatility"
	FeatureCreditPaymentsMonthly    FeatureName = "credit_payments_monthly"
	FeatureInvestFlowMonthly        FeatureName = "invest_flow_monthly"
	FeatureDepositTopupMonthly      FeatureName = "deposit_topup_monthly"
)

// FeatureSchema returns the v1 feature names in canonical order.
func FeatureSchema() []FeatureName {
	return []FeatureName{
		FeatureTotalSpendMonthly,
		FeatureTravelSpendMonthly,
		FeaturePremiumSpendMonthly,
		FeatureOnlineSpendMonthly,
		FeatureJewelrySpendMonthly,
		FeatureTop3SpendMonthly,
		FeatureTop3Share,
		FeatureOnlineOutsideTop3Monthly,
		FeatureCategoryCount,
		FeatureForeignSpendMonthly,
		FeatureFXLossMonthly,
		FeatureFXVolumeMonthly,
		FeatureFXActivityRatio,
		FeatureATMWithdrawalMonthly,
		FeatureATMFreqMonthly,
		FeatureP2POutMonthly,
		FeatureInflowMonthly,
		FeatureOutflowMonthly,
		FeatureCashFlowRatio,
		FeatureCashFlowGapMonthly,
		FeatureAvgBalance,
		FeatureBalanceStability,
		FeatureSpendVolatility,
		FeatureCreditPaymentsMonthly,
		FeatureInvestFlowMonthly,
		FeatureDepositTopupMonthly,
	}
}

// FeatureSet is the per-client feature vector for one window.
// Every schema feature is present; absent data yields zero or a neutral value.
type FeatureSet struct {
	ClientCode    int64
	Window        Window
	SchemaVersion string
	Values        map[FeatureName]decimal.Decimal
	TopCategories []string // top-3 spend categories, largest first
	Months        int      // whole months used for normalization
}

// NewFeatureSet returns a feature set with every schema feature set to zero.
func NewFeatureSet(clientCode int64, window Window) FeatureSet {
	values := make(map[FeatureName]decimal.Decimal, len(FeatureSchema()))
	for _, name := range FeatureSchema() {
		values[name] = decimal.Zero
	}
	return FeatureSet{
		ClientCode:    clientCode,
		Window:        window,
		SchemaVersion: FeatureSchemaVersion,
		Values:        values,
		Months:        window.Months(),
	}
}

// Get returns the feature value, zero when absent.
func (fs FeatureSet) Get(name FeatureName) decimal.Decimal {
	if v, ok := fs.Values[name]; ok {
		return v
	}
	return decimal.Zero
}

// Set stores a feature value.
func (fs FeatureSet) Set(name FeatureName, v decimal.Decimal) {
	fs.Values[name] = v
}
