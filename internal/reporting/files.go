package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names written by WriteFiles.
const (
	RecommendationsFile = "recommendations.csv"
	SignalsDebugFile    = "signals_debug.csv"
	BenefitsDebugFile   = "benefits_debug.csv"
	ReportFile          = "REPORT.md"
)

// WriteFiles renders every artifact of r into dir and returns the written paths.
func WriteFiles(r *Report, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	recs, err := RenderRecommendationsCSV(r)
	if err != nil {
		return nil, err
	}
	signals, err := RenderSignalsCSV(r)
	if err != nil {
		return nil, err
	}
	benefits, err := RenderEstimatesCSV(r)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		name    string
		content string
	}{
		{RecommendationsFile, recs},
		{SignalsDebugFile, signals},
		{BenefitsDebugFile, benefits},
		{ReportFile, RenderMarkdown(r)},
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := os.WriteFile(path, []byte(out.content), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", out.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
