package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func money(v decimal.Decimal) string {
	return printer.Sprintf("%d KZT", v.Round(0).IntPart())
}

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Recommendation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run
	if r.Run != nil {
		sb.WriteString("## Latest Run\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.Run.RunID))
		sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Run.Status))
		sb.WriteString(fmt.Sprintf("| Window | %s |\n", r.Run.Window))
		sb.WriteString(fmt.Sprintf("| Policy Version | %s |\n", r.Run.PolicyVersion))
		sb.WriteString(fmt.Sprintf("| Clients Succeeded | %d / %d |\n", r.Run.ClientsSucceeded, r.Run.ClientsTotal))
		sb.WriteString(fmt.Sprintf("| Clients Failed | %d |\n", r.Run.ClientsFailed))
		sb.WriteString(fmt.Sprintf("| Clients Without Data | %d |\n", r.Run.ClientsNoData))
		sb.WriteString(fmt.Sprintf("| Records Dropped | %d |\n", r.Run.RecordsDropped))
		sb.WriteString(fmt.Sprintf("| Results Digest | `%s` |\n", r.Run.ResultsDigest))
		sb.WriteString("\n")

		if len(r.Run.Errors) > 0 {
			sb.WriteString("### Errors\n\n")
			for _, e := range r.Run.Errors {
				sb.WriteString(fmt.Sprintf("- %s\n", e))
			}
			sb.WriteString("\n")
		}
	}

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Clients | %d |\n", s.TotalClients))
	sb.WriteString(fmt.Sprintf("| Clients With Recommendations | %d |\n", s.ClientsWithRecommendations))
	sb.WriteString(fmt.Sprintf("| Recommendation Rate | %.1f%% |\n", s.RecommendationRate*100))
	sb.WriteString(fmt.Sprintf("| Total Recommendations | %d |\n", s.TotalRecommendations))
	sb.WriteString(fmt.Sprintf("| Average Top-1 Benefit | %s |\n", money(s.AvgTopBenefit)))
	sb.WriteString("\n")

	// Top products
	sb.WriteString("## Top Products\n\n")
	if len(s.TopProducts) > 0 {
		sb.WriteString("| Product | Recommendations |\n")
		sb.WriteString("|---------|-----------------|\n")
		for _, p := range s.TopProducts {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", p.Name, p.Count))
		}
	} else {
		sb.WriteString("No recommendations available.\n")
	}
	sb.WriteString("\n")

	// Top pick per client
	sb.WriteString("## Top Pick Per Client\n\n")
	if s.ClientsWithRecommendations > 0 {
		sb.WriteString("| Client | Name | Product | Benefit | Reason |\n")
		sb.WriteString("|--------|------|---------|---------|--------|\n")
		for _, c := range r.Clients {
			if len(c.Recommendations) == 0 {
				continue
			}
			top := c.Recommendations[0]
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				c.ClientCode, c.Name, r.productName(top.Product), money(top.Benefit), escapePipes(top.Reason)))
		}
	} else {
		sb.WriteString("No recommendations available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
