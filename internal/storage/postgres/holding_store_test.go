package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-personalization/internal/domain"
)

func TestCurrentProductsQuery_OrderOnlyInsideSubquery(t *testing.T) {
	union := strings.Index(currentProductsQuery, "UNION")
	require.Positive(t, union)

	// The trailing select of a UNION may only be ordered by output column names.
	tail := currentProductsQuery[strings.LastIndex(currentProductsQuery, ")"):]
	assert.NotContains(t, tail, "ORDER BY")
	assert.NotContains(t, currentProductsQuery, "COLLATE")
	assert.Equal(t, 1, strings.Count(currentProductsQuery, "ORDER BY"))
}

func TestSortRefs_Bytewise(t *testing.T) {
	refs := sortRefs([]string{"Премиальная карта", "gold_bars", "Premium Card", "10"})
	assert.Equal(t, []string{"10", "Premium Card", "gold_bars", "Премиальная карта"}, refs)
}

func TestHoldingStore_UnionOfExplicitAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	holdings := NewHoldingStore(pool)

	refs, err := holdings.GetCurrentProducts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, refs)

	require.NoError(t, NewTransactionStore(pool).InsertTransactions(ctx, []*domain.Transaction{
		{ClientCode: 1, Date: day(2025, 6, 2), Category: "Такси", Amount: decimal.NewFromInt(1), Currency: "KZT", Product: "Кредитная карта"},
		{ClientCode: 1, Date: day(2025, 7, 2), Category: "Такси", Amount: decimal.NewFromInt(1), Currency: "KZT", Product: "Премиальная карта"},
		{ClientCode: 1, Date: day(2025, 8, 2), Category: "Такси", Amount: decimal.NewFromInt(1), Currency: "KZT"},
	}))
	require.NoError(t, holdings.AddHolding(ctx, 1, "gold_bars"))
	require.NoError(t, holdings.AddHolding(ctx, 1, "Premium Card"))
	require.NoError(t, holdings.AddHolding(ctx, 1, "Премиальная карта"))

	refs, err = holdings.GetCurrentProducts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Premium Card", "gold_bars", "Премиальная карта"}, refs)
}
