package ranking

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bank-personalization/internal/benefit"
	"bank-personalization/internal/domain"
)

var signalLabels = map[domain.SignalType]string{
	domain.SignalTravelSpending:     "траты на поездки и такси",
	domain.SignalForeignSpending:    "траты в валюте",
	domain.SignalHighBalance:        "высокий средний остаток",
	domain.SignalFrequentATM:        "частое снятие наличных",
	domain.SignalPremiumSpending:    "траты в ресторанах и премиальных категориях",
	domain.SignalTop3Concentration:  "траты сосредоточены в топ-категориях",
	domain.SignalOnlineSpending:     "траты на онлайн-сервисы",
	domain.SignalFXActivity:         "активный обмен валют",
	domain.SignalCashFlowGap:        "расходы превышают поступления",
	domain.SignalLowBalanceCoverage: "остаток покрывает малую часть трат",
	domain.SignalStableSpending:     "стабильные ежемесячные траты",
	domain.SignalIdleBalance:        "свободный остаток",
	domain.SignalDepositTopups:      "регулярные пополнения",
	domain.SignalInvestActivity:     "инвестиционная активность",
	domain.SignalJewelrySpending:    "покупки ювелирных изделий",
}

var termLabels = map[string]string{
	benefit.TermTravelCashback:    "кешбэк на поездки",
	benefit.TermFXSavings:         "экономия на конвертации по карте",
	benefit.TermTierCashback:      "кешбэк по уровням",
	benefit.TermPremiumCashback:   "кешбэк в ресторанах и премиальных категориях",
	benefit.TermATMFeeSavings:     "бесплатное снятие наличных",
	benefit.TermTop3Cashback:      "кешбэк в любимых категориях",
	benefit.TermOnlineCashback:    "кешбэк на онлайн-сервисы",
	benefit.TermInterestFree:      "беспроцентный период",
	benefit.TermSpreadSavings:     "выгодный курс обмена",
	benefit.TermFXOptimization:    "обмен в удачный момент",
	benefit.TermInterestSavings:   "экономия на процентах",
	benefit.TermDepositInterest:   "доход по вкладу",
	benefit.TermCommissionSavings: "экономия на комиссиях",
	benefit.TermInflationHedge:    "защита от инфляции",
}

var strengthLabels = map[domain.Strength]string{
	domain.StrengthLow:    "слабый",
	domain.StrengthMedium: "средний",
	domain.StrengthHigh:   "сильный",
}

var groupSpaces = strings.NewReplacer("\u00a0", " ", "\u202f", " ")

// ReasonWriter renders short deterministic explanations of a recommendation.
type ReasonWriter struct {
	printer *message.Printer
}

// NewReasonWriter creates a writer that groups thousands with spaces.
func NewReasonWriter() *ReasonWriter {
	return &ReasonWriter{printer: message.NewPrinter(language.Russian)}
}

// Write summarizes the strongest signal and the dominant breakdown term, e.g.
// "Карта для путешествий: траты на поездки и такси 60 000 ₸/мес. (сильный); основная выгода: экономия на конвертации по карте 72 000 ₸/год".
func (w *ReasonWriter) Write(product domain.Product, est domain.BenefitEstimate, signals []domain.Signal) string {
	var sb strings.Builder
	sb.WriteString(product.Name)
	sb.WriteString(": ")

	if s, ok := domain.Strongest(signals); ok {
		sb.WriteString(signalLabel(s.Type))
		sb.WriteString(" ")
		sb.WriteString(w.featureValue(s.Feature, s.Value))
		if l, ok := strengthLabels[s.Strength]; ok {
			sb.WriteString(" (")
			sb.WriteString(l)
			sb.WriteString(")")
		}
	} else {
		sb.WriteString("нет выраженного поведенческого сигнала")
	}

	if t, ok := est.Breakdown.DominantTerm(); ok {
		sb.WriteString("; основная выгода: ")
		sb.WriteString(termLabel(t.Name))
		sb.WriteString(" ")
		sb.WriteString(w.Money(t.Amount))
		sb.WriteString("/год")
	}
	return sb.String()
}

// Money formats an amount as whole tenge with space-grouped thousands.
func (w *ReasonWriter) Money(v decimal.Decimal) string {
	return groupSpaces.Replace(w.printer.Sprintf("%d", v.Round(0).IntPart())) + " ₸"
}

func (w *ReasonWriter) featureValue(name domain.FeatureName, v decimal.Decimal) string {
	n := string(name)
	switch {
	case strings.HasSuffix(n, "_share"), strings.HasSuffix(n, "_ratio"), n == string(domain.FeatureSpendVolatility):
		if name == domain.FeatureBalanceStability {
			return decimalComma(v.Round(1)) + " мес."
		}
		return decimalComma(v.Mul(decimal.NewFromInt(100)).Round(1)) + "%"
	case name == domain.FeatureATMFreqMonthly:
		return decimalComma(v.Round(1)) + " раз/мес."
	case strings.HasSuffix(n, "_monthly"):
		return w.Money(v) + "/мес."
	default:
		return w.Money(v)
	}
}

func decimalComma(v decimal.Decimal) string {
	return strings.Replace(v.String(), ".", ",", 1)
}

func signalLabel(t domain.SignalType) string {
	if l, ok := signalLabels[t]; ok {
		return l
	}
	return "поведенческий сигнал"
}

func termLabel(name string) string {
	if l, ok := termLabels[name]; ok {
		return l
	}
	return "прочая выгода"
}
