// Package features derives the per-client feature vector from raw
// transaction and transfer records of one analysis window.
package features

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

const (
	moneyPlaces = 2
	ratioPlaces = 6
)

// Result is the output of one extraction.
type Result struct {
	Features domain.FeatureSet
	// Dropped counts records rejected by integrity checks.
	Dropped int
	// DataGap is true when no valid record remained in the window.
	DataGap bool
}

// Extractor computes feature sets. It is stateless and safe for concurrent use.
type Extractor struct {
	policy  *policy.Policy
	travel  map[string]bool
	premium map[string]bool
	online  map[string]bool
	jewelry map[string]bool
}

// NewExtractor creates an extractor bound to the category groups and FX table of p.
func NewExtractor(p *policy.Policy) *Extractor {
	return &Extractor{
		policy:  p,
		travel:  toSet(p.Categories.Travel),
		premium: toSet(p.Categories.Premium),
		online:  toSet(p.Categories.Online),
		jewelry: toSet(p.Categories.Jewelry),
	}
}

// totals accumulates window sums in KZT before normalization.
type totals struct {
	spend      decimal.Decimal
	byCategory map[string]decimal.Decimal
	byMonth    []decimal.Decimal
	travel     decimal.Decimal
	premium    decimal.Decimal
	online     decimal.Decimal
	jewelry    decimal.Decimal
	foreign    decimal.Decimal

	transfers  decimal.Decimal
	inflow     decimal.Decimal
	outflow    decimal.Decimal
	fx         decimal.Decimal
	atm        decimal.Decimal
	atmCount   int64
	p2p        decimal.Decimal
	credit     decimal.Decimal
	invest     decimal.Decimal
	topups     decimal.Decimal
	validCount int
}

// Extract computes the feature set of one client.
// Records that belong to another client, fall outside the window, carry a
// negative amount or an unknown currency are dropped and counted.
// The result does not depend on the order of the input records.
func (e *Extractor) Extract(client *domain.Client, txs []domain.Transaction, transfers []domain.Transfer, window domain.Window) Result {
	fs := domain.NewFeatureSet(client.Code, window)
	months := window.Months()

	t := totals{
		byCategory: make(map[string]decimal.Decimal),
		byMonth:    make([]decimal.Decimal, months),
	}
	dropped := 0

	for _, tx := range txs {
		kzt, ok := e.accept(client.Code, tx.ClientCode, tx.Date, tx.Amount, tx.Currency, window)
		if !ok {
			dropped++
			continue
		}
		e.addTransaction(&t, tx, kzt, window)
	}
	for _, tr := range transfers {
		kzt, ok := e.accept(client.Code, tr.ClientCode, tr.Date, tr.Amount, tr.Currency, window)
		if !ok || (tr.Direction != domain.DirectionIn && tr.Direction != domain.DirectionOut) {
			dropped++
			continue
		}
		addTransfer(&t, tr, kzt)
	}

	md := decimal.NewFromInt(int64(months))
	monthly := func(v decimal.Decimal) decimal.Decimal { return v.DivRound(md, moneyPlaces) }

	// Spend by category
	spendMonthly := monthly(t.spend)
	fs.Set(domain.FeatureTotalSpendMonthly, spendMonthly)
	fs.Set(domain.FeatureTravelSpendMonthly, monthly(t.travel))
	fs.Set(domain.FeaturePremiumSpendMonthly, monthly(t.premium))
	fs.Set(domain.FeatureOnlineSpendMonthly, monthly(t.online))
	fs.Set(domain.FeatureJewelrySpendMonthly, monthly(t.jewelry))
	fs.Set(domain.FeatureCategoryCount, decimal.NewFromInt(int64(len(t.byCategory))))

	top, topSum := topCategories(t.byCategory, 3)
	fs.TopCategories = top
	fs.Set(domain.FeatureTop3SpendMonthly, monthly(topSum))
	fs.Set(domain.FeatureTop3Share, share(topSum, t.spend))

	onlineOutside := decimal.Zero
	inTop := toSet(top)
	for cat, amt := range t.byCategory {
		if e.online[cat] && !inTop[cat] {
			onlineOutside = onlineOutside.Add(amt)
		}
	}
	fs.Set(domain.FeatureOnlineOutsideTop3Monthly, monthly(onlineOutside))

	// FX
	foreignMonthly := monthly(t.foreign)
	fs.Set(domain.FeatureForeignSpendMonthly, foreignMonthly)
	fs.Set(domain.FeatureFXLossMonthly, foreignMonthly.Mul(e.policy.CardFXFeeRate).Round(moneyPlaces))
	fs.Set(domain.FeatureFXVolumeMonthly, monthly(t.fx))
	fs.Set(domain.FeatureFXActivityRatio, share(t.fx, t.transfers))

	// Cash usage
	fs.Set(domain.FeatureATMWithdrawalMonthly, monthly(t.atm))
	fs.Set(domain.FeatureATMFreqMonthly, monthly(decimal.NewFromInt(t.atmCount)))
	fs.Set(domain.FeatureP2POutMonthly, monthly(t.p2p))

	// Cash flow
	outflow := t.outflow.Add(t.spend)
	fs.Set(domain.FeatureInflowMonthly, monthly(t.inflow))
	fs.Set(domain.FeatureOutflowMonthly, monthly(outflow))
	fs.Set(domain.FeatureCashFlowRatio, share(outflow, t.inflow))
	gap := outflow.Sub(t.inflow)
	if gap.IsNegative() {
		gap = decimal.Zero
	}
	fs.Set(domain.FeatureCashFlowGapMonthly, monthly(gap))

	// Balance
	balance := client.AvgMonthlyBalance
	fs.Set(domain.FeatureAvgBalance, balance)
	fs.Set(domain.FeatureBalanceStability, coverage(balance, spendMonthly, e.policy.CoverageCap))
	fs.Set(domain.FeatureSpendVolatility, volatility(t.byMonth))

	// Product usage
	fs.Set(domain.FeatureCreditPaymentsMonthly, monthly(t.credit))
	fs.Set(domain.FeatureInvestFlowMonthly, monthly(t.invest))
	fs.Set(domain.FeatureDepositTopupMonthly, monthly(t.topups))

	return Result{
		Features: fs,
		Dropped:  dropped,
		DataGap:  t.validCount == 0,
	}
}

// accept applies the record integrity checks and converts the amount to KZT.
func (e *Extractor) accept(want, got int64, date time.Time, amount decimal.Decimal, currency string, window domain.Window) (decimal.Decimal, bool) {
	if got != want || amount.IsNegative() || !window.Contains(date) {
		return decimal.Zero, false
	}
	return e.policy.ToKZT(amount, currency)
}

func (e *Extractor) addTransaction(t *totals, tx domain.Transaction, kzt decimal.Decimal, window domain.Window) {
	t.validCount++
	t.spend = t.spend.Add(kzt)
	t.byCategory[tx.Category] = t.byCategory[tx.Category].Add(kzt)
	idx := window.MonthIndex(tx.Date)
	t.byMonth[idx] = t.byMonth[idx].Add(kzt)

	if tx.Currency != "" && tx.Currency != domain.CurrencyKZT {
		t.foreign = t.foreign.Add(kzt)
	}
	if e.travel[tx.Category] {
		t.travel = t.travel.Add(kzt)
	}
	if e.premium[tx.Category] {
		t.premium = t.premium.Add(kzt)
	}
	if e.online[tx.Category] {
		t.online = t.online.Add(kzt)
	}
	if e.jewelry[tx.Category] {
		t.jewelry = t.jewelry.Add(kzt)
	}
}

func addTransfer(t *totals, tr domain.Transfer, kzt decimal.Decimal) {
	t.validCount++
	t.transfers = t.transfers.Add(kzt)
	if tr.Direction == domain.DirectionIn {
		t.inflow = t.inflow.Add(kzt)
	} else {
		t.outflow = t.outflow.Add(kzt)
	}

	switch tr.Type {
	case domain.TransferATMWithdrawal:
		t.atm = t.atm.Add(kzt)
		t.atmCount++
	case domain.TransferP2POut, domain.TransferCardOut:
		t.p2p = t.p2p.Add(kzt)
	case domain.TransferFXBuy, domain.TransferFXSell:
		t.fx = t.fx.Add(kzt)
	case domain.TransferLoanPaymentOut, domain.TransferCCRepaymentOut, domain.TransferInstallmentOut:
		t.credit = t.credit.Add(kzt)
	case domain.TransferInvestIn, domain.TransferInvestOut:
		t.invest = t.invest.Add(kzt)
	case domain.TransferDepositTopupOut:
		t.topups = t.topups.Add(kzt)
	}
}

// topCategories returns up to n categories by spend descending, name ascending on ties.
func topCategories(byCategory map[string]decimal.Decimal, n int) ([]string, decimal.Decimal) {
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := byCategory[names[i]], byCategory[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	sum := decimal.Zero
	for _, name := range names {
		sum = sum.Add(byCategory[name])
	}
	return names, sum
}

// share returns part/whole, or 0 when whole is 0.
func share(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.DivRound(whole, ratioPlaces)
}

// coverage returns how many months of spend the balance covers, capped.
func coverage(balance, spendMonthly, limit decimal.Decimal) decimal.Decimal {
	if !spendMonthly.IsPositive() {
		return limit
	}
	return decimal.Min(balance.DivRound(spendMonthly, ratioPlaces), limit)
}

// volatility is the coefficient of variation of monthly spend.
// Fewer than two months or zero mean spend yield 0.
func volatility(byMonth []decimal.Decimal) decimal.Decimal {
	if len(byMonth) < 2 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(len(byMonth)))
	sum := decimal.Zero
	for _, v := range byMonth {
		sum = sum.Add(v)
	}
	if !sum.IsPositive() {
		return decimal.Zero
	}
	mean := sum.Div(n)
	variance := decimal.Zero
	for _, v := range byMonth {
		dev := v.Sub(mean)
		variance = variance.Add(dev.Mul(dev))
	}
	variance = variance.Div(n)
	sd := decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
	return sd.DivRound(mean, ratioPlaces)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
