package features

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

var testWindow = domain.NewWindow(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 3)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testClient(balance string) *domain.Client {
	return &domain.Client{
		Code:              7,
		Name:              "Айгерим",
		Status:            domain.ClientStatusStandard,
		Age:               31,
		City:              "Алматы",
		AvgMonthlyBalance: dec(balance),
	}
}

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 12, 0, 0, 0, time.UTC)
}

func tx(date time.Time, category, amount, currency string) domain.Transaction {
	return domain.Transaction{ClientCode: 7, Date: date, Category: category, Amount: dec(amount), Currency: currency}
}

func tr(date time.Time, typ domain.TransferType, direction, amount string) domain.Transfer {
	return domain.Transfer{ClientCode: 7, Date: date, Type: typ, Direction: direction, Amount: dec(amount), Currency: "KZT"}
}

func assertFeature(t *testing.T, fs domain.FeatureSet, name domain.FeatureName, want string) {
	t.Helper()
	if got := fs.Get(name); !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestExtract_EmptyWindow(t *testing.T) {
	p := policy.Default()
	res := NewExtractor(p).Extract(testClient("0"), nil, nil, testWindow)

	if !res.DataGap {
		t.Error("expected DataGap for empty history")
	}
	if res.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", res.Dropped)
	}
	if res.Features.SchemaVersion != domain.FeatureSchemaVersion {
		t.Errorf("SchemaVersion = %q", res.Features.SchemaVersion)
	}
	for _, name := range domain.FeatureSchema() {
		v, ok := res.Features.Values[name]
		if !ok {
			t.Errorf("feature %s missing", name)
			continue
		}
		want := decimal.Zero
		if name == domain.FeatureBalanceStability {
			want = p.CoverageCap
		}
		if !v.Equal(want) {
			t.Errorf("%s = %s, want %s", name, v, want)
		}
	}
	if len(res.Features.TopCategories) != 0 {
		t.Errorf("TopCategories = %v, want empty", res.Features.TopCategories)
	}
}

func TestExtract_MonthlyNormalization(t *testing.T) {
	txs := []domain.Transaction{
		tx(day(time.June, 3), "Путешествия", "100000", "KZT"),
		tx(day(time.July, 9), "Такси", "30000", "KZT"),
		tx(day(time.August, 20), "Отели", "50000", "KZT"),
		tx(day(time.August, 21), "Продукты питания", "90000", "KZT"),
	}
	res := NewExtractor(policy.Default()).Extract(testClient("500000"), txs, nil, testWindow)
	fs := res.Features

	if fs.Months != 3 {
		t.Fatalf("Months = %d, want 3", fs.Months)
	}
	assertFeature(t, fs, domain.FeatureTravelSpendMonthly, "60000")
	assertFeature(t, fs, domain.FeatureTotalSpendMonthly, "90000")
	assertFeature(t, fs, domain.FeatureCategoryCount, "4")
	assertFeature(t, fs, domain.FeatureAvgBalance, "500000")
	assertFeature(t, fs, domain.FeatureBalanceStability, "5.555556")
}

func TestExtract_ForeignSpendAndFXLoss(t *testing.T) {
	// 450,000 KZT each
	txs := []domain.Transaction{
		tx(day(time.June, 10), "Путешествия", "1000", "USD"),
		tx(day(time.July, 10), "Отели", "900", "EUR"),
	}
	res := NewExtractor(policy.Default()).Extract(testClient("0"), txs, nil, testWindow)
	fs := res.Features

	assertFeature(t, fs, domain.FeatureForeignSpendMonthly, "300000")
	assertFeature(t, fs, domain.FeatureFXLossMonthly, "6000")
	assertFeature(t, fs, domain.FeatureTravelSpendMonthly, "300000")
}

func TestExtract_TransferFeatures(t *testing.T) {
	var transfers []domain.Transfer
	for i := 1; i <= 15; i++ {
		transfers = append(transfers, tr(day(time.July, i), domain.TransferATMWithdrawal, domain.DirectionOut, "10000"))
	}
	transfers = append(transfers,
		tr(day(time.June, 1), domain.TransferSalaryIn, domain.DirectionIn, "300000"),
		tr(day(time.June, 2), domain.TransferFXBuy, domain.DirectionOut, "90000"),
		tr(day(time.June, 3), domain.TransferP2POut, domain.DirectionOut, "30000"),
		tr(day(time.June, 4), domain.TransferCCRepaymentOut, domain.DirectionOut, "60000"),
		tr(day(time.June, 5), domain.TransferDepositTopupOut, domain.DirectionOut, "150000"),
		tr(day(time.June, 6), domain.TransferInvestOut, domain.DirectionOut, "120000"),
	)
	txs := []domain.Transaction{tx(day(time.June, 7), "Продукты питания", "300000", "KZT")}

	res := NewExtractor(policy.Default()).Extract(testClient("1000000"), txs, transfers, testWindow)
	fs := res.Features

	assertFeature(t, fs, domain.FeatureATMFreqMonthly, "5")
	assertFeature(t, fs, domain.FeatureATMWithdrawalMonthly, "50000")
	assertFeature(t, fs, domain.FeatureFXVolumeMonthly, "30000")
	assertFeature(t, fs, domain.FeatureFXActivityRatio, "0.1")
	assertFeature(t, fs, domain.FeatureP2POutMonthly, "10000")
	assertFeature(t, fs, domain.FeatureCreditPaymentsMonthly, "20000")
	assertFeature(t, fs, domain.FeatureDepositTopupMonthly, "50000")
	assertFeature(t, fs, domain.FeatureInvestFlowMonthly, "40000")
	assertFeature(t, fs, domain.FeatureInflowMonthly, "100000")
	// outflow: 600k transfers + 300k spend
	assertFeature(t, fs, domain.FeatureOutflowMonthly, "300000")
	assertFeature(t, fs, domain.FeatureCashFlowGapMonthly, "200000")
	assertFeature(t, fs, domain.FeatureCashFlowRatio, "3")
}

func TestExtract_TopCategories(t *testing.T) {
	txs := []domain.Transaction{
		tx(day(time.June, 1), "Б", "100", "KZT"),
		tx(day(time.June, 1), "А", "100", "KZT"),
		tx(day(time.June, 1), "В", "300", "KZT"),
		tx(day(time.June, 1), "Смотрим дома", "50", "KZT"),
		tx(day(time.June, 1), "Г", "50", "KZT"),
	}
	res := NewExtractor(policy.Default()).Extract(testClient("0"), txs, nil, testWindow)
	fs := res.Features

	want := []string{"В", "А", "Б"}
	if len(fs.TopCategories) != len(want) {
		t.Fatalf("TopCategories = %v, want %v", fs.TopCategories, want)
	}
	for i := range want {
		if fs.TopCategories[i] != want[i] {
			t.Errorf("TopCategories[%d] = %q, want %q", i, fs.TopCategories[i], want[i])
		}
	}
	assertFeature(t, fs, domain.FeatureTop3Share, "0.833333")
	assertFeature(t, fs, domain.FeatureOnlineOutsideTop3Monthly, "16.67")
}

func TestExtract_DropsInvalidRecords(t *testing.T) {
	other := tx(day(time.June, 1), "Такси", "100", "KZT")
	other.ClientCode = 8

	txs := []domain.Transaction{
		other,
		tx(day(time.May, 31), "Такси", "100", "KZT"),
		tx(day(time.September, 1), "Такси", "100", "KZT"),
		tx(day(time.June, 1), "Такси", "-100", "KZT"),
		tx(day(time.June, 1), "Такси", "100", "JPY"),
		tx(day(time.June, 1), "Такси", "300", "KZT"),
	}
	transfers := []domain.Transfer{
		tr(day(time.June, 1), domain.TransferP2POut, "sideways", "100"),
	}

	res := NewExtractor(policy.Default()).Extract(testClient("0"), txs, transfers, testWindow)
	if res.Dropped != 6 {
		t.Errorf("Dropped = %d, want 6", res.Dropped)
	}
	if res.DataGap {
		t.Error("DataGap should be false with one valid record")
	}
	assertFeature(t, res.Features, domain.FeatureTravelSpendMonthly, "100")
}

func TestExtract_SpendVolatility(t *testing.T) {
	steady := []domain.Transaction{
		tx(day(time.June, 5), "Продукты питания", "100000", "KZT"),
		tx(day(time.July, 5), "Продукты питания", "100000", "KZT"),
		tx(day(time.August, 5), "Продукты питания", "100000", "KZT"),
	}
	res := NewExtractor(policy.Default()).Extract(testClient("0"), steady, nil, testWindow)
	assertFeature(t, res.Features, domain.FeatureSpendVolatility, "0")

	bursty := []domain.Transaction{
		tx(day(time.June, 5), "Продукты питания", "300000", "KZT"),
	}
	res = NewExtractor(policy.Default()).Extract(testClient("0"), bursty, nil, testWindow)
	// one month of three carries all spend: sd/mean = sqrt(2)
	assertFeature(t, res.Features, domain.FeatureSpendVolatility, "1.414214")
}

func TestExtract_PermutationStable(t *testing.T) {
	var txs []domain.Transaction
	categories := []string{"Такси", "Отели", "Кафе и рестораны", "Кино", "Продукты питания", "АЗС"}
	for i := 0; i < 90; i++ {
		cur := "KZT"
		if i%7 == 0 {
			cur = "USD"
		}
		txs = append(txs, tx(testWindow.Start.AddDate(0, 0, i), categories[i%len(categories)], decimal.NewFromInt(int64(1000+i*37)).String(), cur))
	}
	var transfers []domain.Transfer
	for i := 0; i < 40; i++ {
		transfers = append(transfers, tr(testWindow.Start.AddDate(0, 0, i*2), domain.TransferATMWithdrawal, domain.DirectionOut, "12345.67"))
	}

	ex := NewExtractor(policy.Default())
	base := ex.Extract(testClient("2500000"), txs, transfers, testWindow).Features

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		shuffledTx := append([]domain.Transaction(nil), txs...)
		rng.Shuffle(len(shuffledTx), func(i, j int) { shuffledTx[i], shuffledTx[j] = shuffledTx[j], shuffledTx[i] })
		shuffledTr := append([]domain.Transfer(nil), transfers...)
		rng.Shuffle(len(shuffledTr), func(i, j int) { shuffledTr[i], shuffledTr[j] = shuffledTr[j], shuffledTr[i] })

		got := ex.Extract(testClient("2500000"), shuffledTx, shuffledTr, testWindow).Features
		for _, name := range domain.FeatureSchema() {
			if !got.Get(name).Equal(base.Get(name)) {
				t.Errorf("round %d: %s = %s, want %s", round, name, got.Get(name), base.Get(name))
			}
		}
		for i := range base.TopCategories {
			if got.TopCategories[i] != base.TopCategories[i] {
				t.Errorf("round %d: TopCategories = %v, want %v", round, got.TopCategories, base.TopCategories)
				break
			}
		}
	}
}
