package domain

import "github.com/shopspring/decimal"

// MaxRecommendations is the upper bound of ranked products per client.
const MaxRecommendations = 4

// Recommendation is one ranked product pitch.
// Ranks are dense per client starting at 1.
type Recommendation struct {
	ID           string // deterministic hash
	ClientCode   int64
	Product      ProductCode
	Rank         int
	Benefit      decimal.Decimal
	Confidence   decimal.Decimal
	Reason       string
	Notification string // opaque text from the notification generator
}

// ClientResults is the complete output of one client for one run.
// Storage replaces any prior results of the client atomically.
type ClientResults struct {
	ClientCode      int64
	Window          Window
	Signals         []Signal
	Estimates       []BenefitEstimate
	Recommendations []Recommendation
}
