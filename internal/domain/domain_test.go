package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindow(t *testing.T) {
	w := NewWindow(date(2025, 6, 1), 3)

	require.NoError(t, w.Validate())
	assert.Equal(t, date(2025, 9, 1), w.End)
	assert.Equal(t, 3, w.Months())
	assert.Equal(t, "2025-06-01..2025-09-01", w.String())

	assert.True(t, w.Contains(date(2025, 6, 1)))
	assert.True(t, w.Contains(date(2025, 8, 31).Add(23*time.Hour)))
	assert.False(t, w.Contains(date(2025, 9, 1)))
	assert.False(t, w.Contains(date(2025, 5, 31)))

	assert.Equal(t, 0, w.MonthIndex(date(2025, 6, 30)))
	assert.Equal(t, 1, w.MonthIndex(date(2025, 7, 1)))
	assert.Equal(t, 2, w.MonthIndex(date(2025, 8, 15)))
}

func TestWindow_PartialMonthFoldsIntoLast(t *testing.T) {
	w := Window{Start: date(2025, 6, 1), End: date(2025, 8, 20)}

	assert.Equal(t, 2, w.Months())
	assert.Equal(t, 1, w.MonthIndex(date(2025, 8, 10)))
}

func TestWindow_Validate(t *testing.T) {
	assert.True(t, IsConfigurationError(Window{}.Validate()))

	inverted := Window{Start: date(2025, 9, 1), End: date(2025, 6, 1)}
	err := inverted.Validate()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "window", cfgErr.Field)
}

func TestCatalog_Resolve(t *testing.T) {
	c := DefaultCatalog()

	require.Len(t, c.Products(), 10)
	for _, ref := range []string{"travel_card", "1", "карта для путешествий", "  Карта для путешествий "} {
		p, ok := c.Resolve(ref)
		assert.True(t, ok, ref)
		assert.Equal(t, ProductTravelCard, p.Code, ref)
	}

	_, ok := c.Resolve("11")
	assert.False(t, ok)
	_, ok = c.Resolve("")
	assert.False(t, ok)

	held := c.ResolveAll([]string{"Премиальная карта", "unknown", "10"})
	assert.Equal(t, map[ProductCode]bool{ProductPremiumCard: true, ProductGoldBars: true}, held)
	assert.Equal(t, []string{"unknown"}, c.Unresolved([]string{"Премиальная карта", "unknown", "10"}))
	assert.Empty(t, c.Unresolved([]string{"gold_bars", "2"}))

	_, err := c.Require("missing")
	assert.True(t, IsConfigurationError(err))
}

func TestCatalog_ResolveAliases(t *testing.T) {
	c := DefaultCatalog()

	cases := map[string]ProductCode{
		"Premium Card":           ProductPremiumCard,
		"premium card":           ProductPremiumCard,
		"Travel Card":            ProductTravelCard,
		"Credit Card":            ProductCreditCard,
		"FX Exchange":            ProductFXExchange,
		"Currency Exchange":      ProductFXExchange,
		"Cash Loan":              ProductCashLoan,
		"Multicurrency Deposit":  ProductDepositMulticurrency,
		"Депозит Мультивалютный": ProductDepositMulticurrency,
		"Savings Deposit":        ProductDepositSavings,
		"Accumulative Deposit":   ProductDepositAccumulative,
		"Investments":            ProductInvestments,
		" Gold Bars ":            ProductGoldBars,
	}
	for ref, want := range cases {
		p, ok := c.Resolve(ref)
		require.True(t, ok, ref)
		assert.Equal(t, want, p.Code, ref)
	}

	_, ok := c.Resolve("Platinum Card")
	assert.False(t, ok)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	products := DefaultProducts()
	products[1].ID = products[0].ID

	_, err := NewCatalog(products)
	assert.Error(t, err)
}

func TestClient_Validate(t *testing.T) {
	assert.NoError(t, (&Client{Code: 1, Name: "Рамазан"}).Validate())

	err := (&Client{Code: 7}).Validate()
	assert.True(t, IsDataIntegrityError(err))
	assert.Contains(t, err.Error(), "client name is empty")
}
