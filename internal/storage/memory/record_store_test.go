package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionStore_GetByClientFiltersWindowAndSorts(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	window := domain.NewWindow(day(2025, 6, 1), 3)

	txs := []*domain.Transaction{
		{ClientCode: 1, Date: day(2025, 8, 3), Category: "Такси", Amount: decimal.NewFromInt(300), Currency: "KZT"},
		{ClientCode: 1, Date: day(2025, 6, 1), Category: "Кафе и рестораны", Amount: decimal.NewFromInt(100), Currency: "KZT"},
		{ClientCode: 1, Date: day(2025, 9, 1), Category: "Такси", Amount: decimal.NewFromInt(999), Currency: "KZT"}, // window end is exclusive
		{ClientCode: 2, Date: day(2025, 7, 1), Category: "Такси", Amount: decimal.NewFromInt(5), Currency: "KZT"},
	}
	if err := store.InsertTransactions(ctx, txs); err != nil {
		t.Fatalf("InsertTransactions failed: %v", err)
	}

	got, err := store.GetByClient(ctx, 1, window)
	if err != nil {
		t.Fatalf("GetByClient failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if !got[0].Date.Equal(day(2025, 6, 1)) || !got[1].Date.Equal(day(2025, 8, 3)) {
		t.Errorf("transactions not ordered by date: %v, %v", got[0].Date, got[1].Date)
	}
}

func TestTransferStore_GetByClient(t *testing.T) {
	store := NewTransferStore()
	ctx := context.Background()
	window := domain.NewWindow(day(2025, 6, 1), 3)

	_ = store.InsertTransfers(ctx, []*domain.Transfer{
		{ClientCode: 4, Date: day(2025, 7, 2), Type: domain.TransferSalaryIn, Direction: domain.DirectionIn, Amount: decimal.NewFromInt(400000), Currency: "KZT"},
		{ClientCode: 4, Date: day(2025, 5, 30), Type: domain.TransferP2POut, Direction: domain.DirectionOut, Amount: decimal.NewFromInt(1000), Currency: "KZT"},
	})

	got, err := store.GetByClient(ctx, 4, window)
	if err != nil {
		t.Fatalf("GetByClient failed: %v", err)
	}
	if len(got) != 1 || got[0].Type != domain.TransferSalaryIn {
		t.Errorf("expected only the salary transfer, got %+v", got)
	}

	empty, err := store.GetByClient(ctx, 99, window)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result for unknown client, got %v, %v", empty, err)
	}
}

func TestHoldingStore_LatestTransactionProductAndExplicit(t *testing.T) {
	txs := NewTransactionStore()
	ctx := context.Background()

	_ = txs.InsertTransactions(ctx, []*domain.Transaction{
		{ClientCode: 1, Date: day(2025, 6, 1), Product: "Карта для путешествий"},
		{ClientCode: 1, Date: day(2025, 8, 1), Product: "Премиальная карта"},
		{ClientCode: 1, Date: day(2025, 8, 15), Product: ""},
		{ClientCode: 1, Date: day(2025, 7, 1), Product: "Кредитная карта"},
	})

	store := NewHoldingStore(txs)
	if err := store.AddHolding(ctx, 1, "gold_bars"); err != nil {
		t.Fatalf("AddHolding failed: %v", err)
	}

	got, err := store.GetCurrentProducts(ctx, 1)
	if err != nil {
		t.Fatalf("GetCurrentProducts failed: %v", err)
	}
	want := []string{"gold_bars", "Премиальная карта"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	none, _ := store.GetCurrentProducts(ctx, 2)
	if len(none) != 0 {
		t.Errorf("expected no holdings, got %v", none)
	}
}

func TestCatalogStore_Default(t *testing.T) {
	store := NewCatalogStore(nil)

	catalog, err := store.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("GetCatalog failed: %v", err)
	}
	if len(catalog.Products()) != len(domain.AllProductCodes()) {
		t.Errorf("expected %d products, got %d", len(domain.AllProductCodes()), len(catalog.Products()))
	}
}
