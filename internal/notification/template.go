package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/observability"
)

// TemplateGenerator renders a fixed Russian template per product.
type TemplateGenerator struct {
	metrics *observability.Metrics
}

// NewTemplateGenerator creates a template generator. m may be nil.
func NewTemplateGenerator(m *observability.Metrics) *TemplateGenerator {
	return &TemplateGenerator{metrics: m}
}

// Generate never fails.
func (g *TemplateGenerator) Generate(_ context.Context, req Request) (string, error) {
	g.metrics.RecordNotification(SourceTemplate)
	return Truncate(render(req)), nil
}

func render(req Request) string {
	name := req.Client.Name
	benefit := Money(req.Recommendation.Benefit)
	months := decimal.NewFromInt(int64(req.Features.Window.Months()))
	fs := req.Features

	switch req.Product.Code {
	case domain.ProductTravelCard:
		travel := fs.Get(domain.FeatureTravelSpendMonthly).Mul(months)
		return fmt.Sprintf("%s, за %d мес. вы потратили %s на поездки и такси. С картой для путешествий вернули бы около %s в год. Оформить карту",
			name, months.IntPart(), Money(travel), benefit)

	case domain.ProductPremiumCard:
		if req.Client.AvgMonthlyBalance.GreaterThan(decimal.NewFromInt(1000000)) {
			return fmt.Sprintf("%s, у вас стабильно высокий остаток на счёте. Премиальная карта даст повышенный кешбэк и бесплатные снятия, выгода %s в год. Подключить",
				name, benefit)
		}
		return fmt.Sprintf("%s, ваши траты в ресторанах и на покупки дают право на премиальную карту с повышенным кешбэком. Выгода %s в год. Оформить",
			name, benefit)

	case domain.ProductCreditCard:
		cats := "покупки"
		if len(fs.TopCategories) > 0 {
			top := fs.TopCategories
			if len(top) > 2 {
				top = top[:2]
			}
			cats = strings.Join(top, ", ")
		}
		return fmt.Sprintf("%s, ваши топ-категории: %s. Кредитная карта даст до 10%% кешбэка в них и онлайн-сервисах. Выгода %s в год. Оформить карту",
			name, cats, benefit)

	case domain.ProductFXExchange:
		volume := fs.Get(domain.FeatureFXVolumeMonthly).Mul(months)
		if volume.IsZero() {
			volume = fs.Get(domain.FeatureForeignSpendMonthly).Mul(months)
		}
		return fmt.Sprintf("%s, вы активно работаете с валютой (оборот %s). Выгодный обмен в приложении сэкономит %s в год. Настроить обмен",
			name, Money(volume), benefit)

	case domain.ProductCashLoan:
		return fmt.Sprintf("%s, если нужны средства на крупные расходы, кредит наличными с гибкими условиями сэкономит на процентах %s в год. Узнать лимит",
			name, benefit)

	case domain.ProductDepositSavings, domain.ProductDepositAccumulative, domain.ProductDepositMulticurrency:
		rate := "выгодной ставке"
		if term, ok := req.Estimate.Breakdown.DominantTerm(); ok && term.Rate.IsPositive() {
			rate = Percent(term.Rate) + " годовых"
		}
		return fmt.Sprintf("%s, у вас остаются свободные средства. %s под %s принесёт %s дохода в год. Открыть вклад",
			name, req.Product.Name, rate, benefit)

	case domain.ProductInvestments:
		return fmt.Sprintf("%s, попробуйте инвестиции с низким порогом входа и без комиссий на старт. Потенциальная выгода %s в год. Открыть счёт",
			name, benefit)

	case domain.ProductGoldBars:
		return fmt.Sprintf("%s, для диверсификации сбережений рассмотрите золотые слитки. Защита от инфляции на %s в год. Узнать подробнее",
			name, benefit)
	}

	return fmt.Sprintf("%s, рекомендуем %s с выгодой %s в год. Узнать условия", name, req.Product.Name, benefit)
}
