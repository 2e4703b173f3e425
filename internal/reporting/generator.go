package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	clientStore  storage.ClientStore
	holdingStore storage.HoldingStore
	resultStore  storage.ResultStore
	runStore     storage.RunStore // optional
	catalog      *domain.Catalog
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runStore may be nil;
// a nil catalog means the default catalog.
func NewGenerator(
	clientStore storage.ClientStore,
	holdingStore storage.HoldingStore,
	resultStore storage.ResultStore,
	runStore storage.RunStore,
	catalog *domain.Catalog,
) *Generator {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	return &Generator{
		clientStore:  clientStore,
		holdingStore: holdingStore,
		resultStore:  resultStore,
		runStore:     runStore,
		catalog:      catalog,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	codes, err := g.clientStore.ListClientCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	recs, err := g.resultStore.ListRecommendations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	byClient := make(map[int64][]domain.Recommendation)
	for _, r := range recs {
		byClient[r.ClientCode] = append(byClient[r.ClientCode], r)
	}

	rows := make([]ClientRow, 0, len(codes))
	for _, code := range codes {
		row, err := g.clientRow(ctx, code, byClient[code])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	signals, err := g.resultStore.ListSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	estimates, err := g.resultStore.ListEstimates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}

	run, err := g.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[domain.ProductCode]string)
	for _, p := range g.catalog.Products() {
		names[p.Code] = p.Name
	}

	return &Report{
		GeneratedAt:  g.now(),
		Run:          run,
		Summary:      g.summarize(rows),
		Clients:      rows,
		Signals:      signals,
		Estimates:    estimates,
		ProductNames: names,
	}, nil
}

func (g *Generator) clientRow(ctx context.Context, code int64, recs []domain.Recommendation) (ClientRow, error) {
	client, err := g.clientStore.GetClient(ctx, code)
	if err != nil {
		return ClientRow{}, fmt.Errorf("get client %d: %w", code, err)
	}

	var current []string
	if g.holdingStore != nil {
		refs, err := g.holdingStore.GetCurrentProducts(ctx, code)
		if err != nil {
			return ClientRow{}, fmt.Errorf("get current products of client %d: %w", code, err)
		}
		for _, ref := range refs {
			if p, ok := g.catalog.Resolve(ref); ok {
				current = append(current, p.Name)
			} else {
				current = append(current, ref)
			}
		}
		sort.Strings(current)
	}

	return ClientRow{
		ClientCode:      code,
		Name:            client.Name,
		CurrentProduct:  strings.Join(current, "; "),
		Recommendations: recs,
	}, nil
}

func (g *Generator) latestRun(ctx context.Context) (*domain.RunSummary, error) {
	if g.runStore == nil {
		return nil, nil
	}
	run, err := g.runStore.LatestRun(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// summarize computes summary statistics over client rows.
func (g *Generator) summarize(rows []ClientRow) SummaryStats {
	s := SummaryStats{TotalClients: len(rows), AvgTopBenefit: decimal.Zero}

	counts := make(map[domain.ProductCode]int)
	topSum := decimal.Zero
	for _, row := range rows {
		if len(row.Recommendations) == 0 {
			continue
		}
		s.ClientsWithRecommendations++
		s.TotalRecommendations += len(row.Recommendations)
		topSum = topSum.Add(row.Recommendations[0].Benefit)
		for _, r := range row.Recommendations {
			counts[r.Product]++
		}
	}

	if s.TotalClients > 0 {
		s.RecommendationRate = float64(s.ClientsWithRecommendations) / float64(s.TotalClients)
	}
	if s.ClientsWithRecommendations > 0 {
		s.AvgTopBenefit = topSum.DivRound(decimal.NewFromInt(int64(s.ClientsWithRecommendations)), 2)
	}

	for code, n := range counts {
		pc := ProductCount{Product: code, Name: string(code), Count: n}
		if p, ok := g.catalog.Get(code); ok {
			pc.Name = p.Name
		}
		s.TopProducts = append(s.TopProducts, pc)
	}
	// Sort by count desc, then product code for determinism
	sort.Slice(s.TopProducts, func(i, j int) bool {
		if s.TopProducts[i].Count != s.TopProducts[j].Count {
			return s.TopProducts[i].Count > s.TopProducts[j].Count
		}
		return s.TopProducts[i].Product < s.TopProducts[j].Product
	})
	if len(s.TopProducts) > TopProductsLimit {
		s.TopProducts = s.TopProducts[:TopProductsLimit]
	}
	return s
}
