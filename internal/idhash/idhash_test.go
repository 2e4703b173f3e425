package idhash

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

var testWindow = domain.NewWindow(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 3)

func TestComputeRecommendationID(t *testing.T) {
	tests := []struct {
		name       string
		clientCode int64
		product    domain.ProductCode
		wantLen    int // hash length should be 64
	}{
		{
			name:       "travel card",
			clientCode: 1,
			product:    domain.ProductTravelCard,
			wantLen:    64,
		},
		{
			name:       "gold bars",
			clientCode: 60,
			product:    domain.ProductGoldBars,
			wantLen:    64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRecommendationID(tt.clientCode, tt.product, testWindow)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeRecommendationID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Same inputs must produce the same output
			got2 := ComputeRecommendationID(tt.clientCode, tt.product, testWindow)
			if got != got2 {
				t.Errorf("ComputeRecommendationID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeRecommendationID_DifferentInputs(t *testing.T) {
	base := ComputeRecommendationID(1, domain.ProductTravelCard, testWindow)

	variants := map[string]string{
		"client":  ComputeRecommendationID(2, domain.ProductTravelCard, testWindow),
		"product": ComputeRecommendationID(1, domain.ProductPremiumCard, testWindow),
		"window":  ComputeRecommendationID(1, domain.ProductTravelCard, domain.NewWindow(testWindow.Start, 2)),
	}
	for name, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the ID", name)
		}
	}
}

func TestComputeResultsDigest(t *testing.T) {
	results := domain.ClientResults{
		ClientCode: 5,
		Window:     testWindow,
		Signals: []domain.Signal{
			{ClientCode: 5, Product: domain.ProductTravelCard, Type: domain.SignalTravelSpending, Value: decimal.NewFromInt(60000), Strength: domain.StrengthHigh},
		},
		Estimates: []domain.BenefitEstimate{
			{ClientCode: 5, Product: domain.ProductTravelCard, Benefit: decimal.NewFromInt(100800), Confidence: decimal.RequireFromString("0.9")},
		},
		Recommendations: []domain.Recommendation{
			{ClientCode: 5, Product: domain.ProductTravelCard, Rank: 1, Benefit: decimal.NewFromInt(100800), Reason: "r"},
		},
	}

	a := ComputeResultsDigest(results)
	if a != ComputeResultsDigest(results) {
		t.Fatal("digest not deterministic")
	}

	results.Recommendations[0].Reason = "changed"
	if a == ComputeResultsDigest(results) {
		t.Error("digest ignores reason text")
	}
}

func TestCombineDigests_OrderIndependent(t *testing.T) {
	a := map[int64]string{1: "x", 2: "y", 3: "z"}
	b := map[int64]string{3: "z", 1: "x", 2: "y"}
	if CombineDigests(a) != CombineDigests(b) {
		t.Error("combined digest depends on map order")
	}
	if CombineDigests(a) == CombineDigests(map[int64]string{1: "x", 2: "y"}) {
		t.Error("combined digest ignores a client")
	}
}
