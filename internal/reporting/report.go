package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

// TopProductsLimit is the number of products listed in the summary.
const TopProductsLimit = 5

// Report is the rendered view of stored pipeline results.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         *domain.RunSummary // latest run, nil when none was saved

	Summary SummaryStats

	// Clients in ascending client code order, recommendations in rank order.
	Clients []ClientRow

	// Debug sections
	Signals   []domain.Signal          // ordered by (client_code, product, type)
	Estimates []domain.BenefitEstimate // ordered by (client_code, product)

	ProductNames map[domain.ProductCode]string
}

// productName returns the catalog name of code, or the code itself.
func (r *Report) productName(code domain.ProductCode) string {
	if name, ok := r.ProductNames[code]; ok {
		return name
	}
	return string(code)
}

// SummaryStats aggregates recommendations over all clients.
type SummaryStats struct {
	TotalClients               int
	ClientsWithRecommendations int
	TotalRecommendations       int
	RecommendationRate         float64 // clients with recommendations / total clients
	TopProducts                []ProductCount
	AvgTopBenefit              decimal.Decimal // mean rank-1 benefit, 0 when none
}

// ProductCount is the number of recommendations of one product.
type ProductCount struct {
	Product domain.ProductCode
	Name    string
	Count   int
}

// ClientRow is one line of the recommendations CSV.
type ClientRow struct {
	ClientCode      int64
	Name            string
	CurrentProduct  string // catalog names of held products joined by "; "
	Recommendations []domain.Recommendation
}
