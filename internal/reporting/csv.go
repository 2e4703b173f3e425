package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"bank-personalization/internal/domain"
)

// RenderRecommendationsCSV renders one row per client with up to four
// recommended products. Missing ranks are left empty.
func RenderRecommendationsCSV(r *Report) (string, error) {
	header := []string{"client_code", "name", "current_product"}
	for i := 1; i <= domain.MaxRecommendations; i++ {
		n := strconv.Itoa(i)
		header = append(header, "top"+n+"_product", "top"+n+"_benefit")
	}

	records := [][]string{header}
	for _, c := range r.Clients {
		rec := []string{strconv.FormatInt(c.ClientCode, 10), c.Name, c.CurrentProduct}
		for i := 0; i < domain.MaxRecommendations; i++ {
			if i < len(c.Recommendations) {
				rec = append(rec, r.productName(c.Recommendations[i].Product), c.Recommendations[i].Benefit.StringFixed(2))
			} else {
				rec = append(rec, "", "")
			}
		}
		records = append(records, rec)
	}
	return writeAll(records)
}

// RenderSignalsCSV renders the stored signals for debugging.
func RenderSignalsCSV(r *Report) (string, error) {
	records := [][]string{{"client_code", "product", "signal", "feature", "value", "threshold", "strength"}}
	for _, s := range r.Signals {
		records = append(records, []string{
			strconv.FormatInt(s.ClientCode, 10),
			string(s.Product),
			string(s.Type),
			string(s.Feature),
			s.Value.String(),
			s.Threshold.String(),
			s.Strength.String(),
		})
	}
	return writeAll(records)
}

// RenderEstimatesCSV renders every benefit estimate with its breakdown terms.
func RenderEstimatesCSV(r *Report) (string, error) {
	records := [][]string{{"client_code", "product", "benefit", "benefit_type", "confidence", "terms", "flags"}}
	for _, e := range r.Estimates {
		terms := make([]string, 0, len(e.Breakdown.Terms))
		for _, t := range e.Breakdown.Terms {
			terms = append(terms, t.Name+"="+t.Amount.StringFixed(2))
		}
		records = append(records, []string{
			strconv.FormatInt(e.ClientCode, 10),
			string(e.Product),
			e.Benefit.StringFixed(2),
			string(e.BenefitType),
			e.Confidence.StringFixed(2),
			strings.Join(terms, ";"),
			strings.Join(e.Breakdown.Flags, ";"),
		})
	}
	return writeAll(records)
}

func writeAll(records [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return sb.String(), nil
}
