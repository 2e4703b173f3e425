package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/storage"
)

func TestClientStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClientStore(pool)
	ctx := context.Background()

	clients := []*domain.Client{
		{Code: 2, Name: "Данияр", Status: domain.ClientStatusPremium, Age: 45, City: "Астана", AvgMonthlyBalance: decimal.NewFromInt(7000000)},
		{Code: 1, Name: "Айгерим", Status: domain.ClientStatusStudent, Age: 20, City: "Алматы", AvgMonthlyBalance: decimal.RequireFromString("15000.50")},
	}
	require.NoError(t, store.InsertClients(ctx, clients))

	got, err := store.GetClient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Айгерим", got.Name)
	assert.Equal(t, domain.ClientStatusStudent, got.Status)
	assert.True(t, got.AvgMonthlyBalance.Equal(decimal.RequireFromString("15000.50")))

	codes, err := store.ListClientCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, codes)

	_, err = store.GetClient(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.InsertClients(ctx, []*domain.Client{{Code: 3, Name: "x"}, {Code: 1, Name: "dup"}})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	_, err = store.GetClient(ctx, 3)
	assert.ErrorIs(t, err, storage.ErrNotFound, "batch must be rolled back")
}

func TestRecordStores_WindowAndOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	txStore := NewTransactionStore(pool)
	trStore := NewTransferStore(pool)
	ctx := context.Background()
	window := domain.NewWindow(day(2025, 6, 1), 3)

	require.NoError(t, txStore.InsertTransactions(ctx, []*domain.Transaction{
		{ClientCode: 1, Date: day(2025, 8, 2), Category: "Такси", Amount: decimal.NewFromInt(2000), Currency: "KZT", Product: "Карта для путешествий"},
		{ClientCode: 1, Date: day(2025, 6, 5), Category: "Отели", Amount: decimal.NewFromInt(90000), Currency: "USD"},
		{ClientCode: 1, Date: day(2025, 9, 1), Category: "Такси", Amount: decimal.NewFromInt(1), Currency: "KZT"},
	}))
	require.NoError(t, trStore.InsertTransfers(ctx, []*domain.Transfer{
		{ClientCode: 1, Date: day(2025, 7, 1), Type: domain.TransferFXBuy, Direction: domain.DirectionOut, Amount: decimal.NewFromInt(100), Currency: "USD"},
	}))

	txs, err := txStore.GetByClient(ctx, 1, window)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Отели", txs[0].Category)
	assert.Equal(t, time.UTC, txs[0].Date.Location())

	transfers, err := trStore.GetByClient(ctx, 1, window)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, domain.TransferFXBuy, transfers[0].Type)

	holdings := NewHoldingStore(pool)
	require.NoError(t, holdings.AddHolding(ctx, 1, "gold_bars"))
	require.NoError(t, holdings.AddHolding(ctx, 1, "gold_bars"))
	refs, err := holdings.GetCurrentProducts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"gold_bars", "Карта для путешествий"}, refs)
}

func TestCatalogStore_Seed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog, err := NewCatalogStore(pool).GetCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProducts(), catalog.Products())
}

func TestResultStore_ReplaceIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	first := &domain.ClientResults{
		ClientCode: 5,
		Signals: []domain.Signal{{
			ClientCode: 5, Product: domain.ProductTravelCard, Type: domain.SignalTravelSpending,
			Feature: domain.FeatureTravelSpendMonthly, Value: decimal.NewFromInt(60000),
			Threshold: decimal.NewFromInt(15000), Strength: domain.StrengthHigh,
		}},
		Estimates: []domain.BenefitEstimate{{
			ClientCode: 5, Product: domain.ProductTravelCard, Benefit: decimal.NewFromInt(100800),
			BenefitType: domain.BenefitCashback, Confidence: decimal.RequireFromString("0.9"),
			Breakdown: domain.Breakdown{
				Terms: []domain.BenefitTerm{{Name: "travel_cashback", Amount: decimal.NewFromInt(28800), Rate: decimal.RequireFromString("0.04"), Base: decimal.NewFromInt(720000)}},
				Flags: []string{domain.FlagCapApplied},
			},
		}},
		Recommendations: []domain.Recommendation{{
			ID: "r1", ClientCode: 5, Product: domain.ProductTravelCard, Rank: 1,
			Benefit: decimal.NewFromInt(100800), Confidence: decimal.RequireFromString("0.9"), Reason: "travel",
		}},
	}
	require.NoError(t, store.ReplaceClientResults(ctx, first))

	estimates, err := store.ListEstimates(ctx)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.True(t, estimates[0].Breakdown.Terms[0].Base.Equal(decimal.NewFromInt(720000)))
	assert.True(t, estimates[0].Breakdown.HasFlag(domain.FlagCapApplied))

	signals, err := store.ListSignals(ctx)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.StrengthHigh, signals[0].Strength)

	require.NoError(t, store.SetNotification(ctx, 5, domain.ProductTravelCard, "Привет"))
	assert.ErrorIs(t, store.SetNotification(ctx, 5, domain.ProductGoldBars, "x"), storage.ErrNotFound)

	// A failing replace (duplicate rank) must leave the previous results intact.
	bad := &domain.ClientResults{
		ClientCode: 5,
		Recommendations: []domain.Recommendation{
			{ID: "a", ClientCode: 5, Product: domain.ProductGoldBars, Rank: 1, Reason: "x"},
			{ID: "b", ClientCode: 5, Product: domain.ProductInvestments, Rank: 1, Reason: "y"},
		},
	}
	assert.Error(t, store.ReplaceClientResults(ctx, bad))

	recs, err := store.GetRecommendations(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Привет", recs[0].Notification)

	// An empty replace clears the client.
	require.NoError(t, store.ReplaceClientResults(ctx, &domain.ClientResults{ClientCode: 5}))
	all, err := store.ListRecommendations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRunStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()
	started := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	_, err := store.LatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	run := &domain.RunSummary{
		RunID:            "run-1",
		Window:           domain.NewWindow(day(2025, 6, 1), 3),
		PolicyVersion:    "2025.1",
		StartedAt:        started,
		FinishedAt:       started.Add(time.Minute),
		Status:           domain.RunStatusPartial,
		ClientsTotal:     3,
		ClientsSucceeded: 2,
		ClientsFailed:    1,
		Recommendations:  7,
		ResultsDigest:    "abc",
		Errors:           []string{"client 3: boom"},
	}
	require.NoError(t, store.SaveRun(ctx, run))
	assert.ErrorIs(t, store.SaveRun(ctx, run), storage.ErrDuplicateKey)

	later := *run
	later.RunID = "run-2"
	later.StartedAt = started.Add(time.Hour)
	later.Errors = nil
	require.NoError(t, store.SaveRun(ctx, &later))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Window, got.Window)
	assert.Equal(t, run.Errors, got.Errors)
	assert.Equal(t, 7, got.Recommendations)

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Empty(t, latest.Errors)
}
