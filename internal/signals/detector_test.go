package signals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

var testWindow = domain.NewWindow(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 3)

func featureSet(values map[domain.FeatureName]string) domain.FeatureSet {
	fs := domain.NewFeatureSet(42, testWindow)
	for name, v := range values {
		fs.Set(name, decimal.RequireFromString(v))
	}
	return fs
}

func find(signals []domain.Signal, product domain.ProductCode, typ domain.SignalType) (domain.Signal, bool) {
	for _, s := range signals {
		if s.Product == product && s.Type == typ {
			return s, true
		}
	}
	return domain.Signal{}, false
}

func TestDetect_TravelScenario(t *testing.T) {
	fs := featureSet(map[domain.FeatureName]string{
		domain.FeatureTravelSpendMonthly: "60000",
		domain.FeatureFXLossMonthly:      "6000",
	})

	signals := NewDetector(policy.Default()).DetectProduct(fs, domain.ProductTravelCard)
	require.Len(t, signals, 2)

	travel, ok := find(signals, domain.ProductTravelCard, domain.SignalTravelSpending)
	require.True(t, ok)
	assert.Equal(t, domain.StrengthHigh, travel.Strength)
	assert.True(t, travel.Value.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, int64(42), travel.ClientCode)

	fx, ok := find(signals, domain.ProductTravelCard, domain.SignalForeignSpending)
	require.True(t, ok)
	assert.Equal(t, domain.StrengthHigh, fx.Strength)
}

func TestDetect_PremiumScenario(t *testing.T) {
	// Balance 1.2M, 15 ATM operations a month, 180k spend spread over many categories.
	fs := featureSet(map[domain.FeatureName]string{
		domain.FeatureAvgBalance:         "1200000",
		domain.FeatureATMFreqMonthly:     "15",
		domain.FeatureTotalSpendMonthly:  "180000",
		domain.FeatureTop3SpendMonthly:   "63000",
		domain.FeatureTop3Share:          "0.35",
		domain.FeatureCategoryCount:      "12",
		domain.FeatureBalanceStability:   "6.666667",
		domain.FeatureTravelSpendMonthly: "15000",
	})

	signals := NewDetector(policy.Default()).Detect(fs)

	balance, ok := find(signals, domain.ProductPremiumCard, domain.SignalHighBalance)
	require.True(t, ok, "balance signal for premium card")
	assert.Equal(t, domain.StrengthMedium, balance.Strength)

	atm, ok := find(signals, domain.ProductPremiumCard, domain.SignalFrequentATM)
	require.True(t, ok, "ATM signal for premium card")
	assert.Equal(t, domain.StrengthHigh, atm.Strength)

	_, ok = find(signals, domain.ProductCreditCard, domain.SignalTop3Concentration)
	assert.False(t, ok, "no concentrated top-3 spending")

	_, ok = find(signals, domain.ProductCashLoan, domain.SignalLowBalanceCoverage)
	assert.False(t, ok)
}

func TestEvaluate_Bands(t *testing.T) {
	pr := policy.Predicate{
		Product:   domain.ProductTravelCard,
		Signal:    domain.SignalTravelSpending,
		Feature:   domain.FeatureTravelSpendMonthly,
		Direction: policy.Above,
		Trigger:   decimal.NewFromInt(0),
		Medium:    decimal.NewFromInt(20000),
		High:      decimal.NewFromInt(50000),
	}

	tests := []struct {
		value string
		fires bool
		want  domain.Strength
	}{
		{"0", false, domain.StrengthNone},
		{"0.01", true, domain.StrengthLow},
		{"19999.99", true, domain.StrengthLow},
		{"20000", true, domain.StrengthMedium},
		{"49999.99", true, domain.StrengthMedium},
		{"50000", true, domain.StrengthHigh},
		{"60000", true, domain.StrengthHigh},
	}
	for _, tt := range tests {
		fs := featureSet(map[domain.FeatureName]string{domain.FeatureTravelSpendMonthly: tt.value})
		s, ok := Evaluate(pr, fs)
		if ok != tt.fires {
			t.Errorf("value %s: fires = %v, want %v", tt.value, ok, tt.fires)
			continue
		}
		if ok && s.Strength != tt.want {
			t.Errorf("value %s: strength = %s, want %s", tt.value, s.Strength, tt.want)
		}
	}
}

func TestEvaluate_Below(t *testing.T) {
	pr := policy.Predicate{
		Product:   domain.ProductCashLoan,
		Signal:    domain.SignalLowBalanceCoverage,
		Feature:   domain.FeatureBalanceStability,
		Direction: policy.Below,
		Trigger:   decimal.NewFromInt(2),
		Medium:    decimal.NewFromInt(2),
		High:      decimal.NewFromInt(1),
	}

	tests := []struct {
		value string
		fires bool
		want  domain.Strength
	}{
		{"2", false, domain.StrengthNone},
		{"1.5", true, domain.StrengthMedium},
		{"1", true, domain.StrengthHigh},
		{"-0.5", true, domain.StrengthHigh},
	}
	for _, tt := range tests {
		fs := featureSet(map[domain.FeatureName]string{domain.FeatureBalanceStability: tt.value})
		s, ok := Evaluate(pr, fs)
		if ok != tt.fires {
			t.Errorf("value %s: fires = %v, want %v", tt.value, ok, tt.fires)
			continue
		}
		if ok && s.Strength != tt.want {
			t.Errorf("value %s: strength = %s, want %s", tt.value, s.Strength, tt.want)
		}
	}
}

func TestEvaluate_MinCategories(t *testing.T) {
	var top3 policy.Predicate
	for _, pr := range policy.Default().PredicatesFor(domain.ProductCreditCard) {
		if pr.Signal == domain.SignalTop3Concentration {
			top3 = pr
		}
	}
	require.Equal(t, 3, top3.MinCategories)

	fs := featureSet(map[domain.FeatureName]string{
		domain.FeatureTop3Share:     "1",
		domain.FeatureCategoryCount: "2",
	})
	_, ok := Evaluate(top3, fs)
	assert.False(t, ok, "fewer than three categories cannot be concentrated")

	fs.Set(domain.FeatureCategoryCount, decimal.NewFromInt(3))
	s, ok := Evaluate(top3, fs)
	require.True(t, ok)
	assert.Equal(t, domain.StrengthHigh, s.Strength)
}

func TestDetect_EmptyFeatures(t *testing.T) {
	p := policy.Default()
	fs := domain.NewFeatureSet(1, testWindow)
	fs.Set(domain.FeatureBalanceStability, p.CoverageCap)

	signals := NewDetector(p).Detect(fs)

	// Only the volatility-based savings signal can hold on an empty window.
	for _, s := range signals {
		assert.Equal(t, domain.SignalStableSpending, s.Type, "unexpected signal %s/%s", s.Product, s.Type)
	}
}

func TestDetect_ThresholdsAreConfiguration(t *testing.T) {
	fs := featureSet(map[domain.FeatureName]string{domain.FeatureTravelSpendMonthly: "30000"})

	p := policy.Default()
	s, ok := find(NewDetector(p).Detect(fs), domain.ProductTravelCard, domain.SignalTravelSpending)
	require.True(t, ok)
	assert.Equal(t, domain.StrengthMedium, s.Strength)

	for i := range p.Predicates {
		if p.Predicates[i].Signal == domain.SignalTravelSpending {
			p.Predicates[i].High = decimal.NewFromInt(25000)
		}
	}
	s, ok = find(NewDetector(p).Detect(fs), domain.ProductTravelCard, domain.SignalTravelSpending)
	require.True(t, ok)
	assert.Equal(t, domain.StrengthHigh, s.Strength)
}

func TestDetect_SortedAndUnique(t *testing.T) {
	fs := featureSet(map[domain.FeatureName]string{
		domain.FeatureAvgBalance:          "7000000",
		domain.FeatureTravelSpendMonthly:  "1000",
		domain.FeatureJewelrySpendMonthly: "50000",
	})
	signals := NewDetector(policy.Default()).Detect(fs)
	require.NotEmpty(t, signals)

	seen := make(map[string]bool)
	for i, s := range signals {
		key := string(s.Product) + "/" + string(s.Type)
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
		if i > 0 {
			prev := signals[i-1]
			assert.True(t, prev.Product < s.Product || (prev.Product == s.Product && prev.Type < s.Type), "not sorted at %d", i)
		}
	}
}
