package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	report := generate(t, setupTestData(t))

	paths, err := WriteFiles(report, dir)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("expected 4 files, got %d", len(paths))
	}

	data, err := os.ReadFile(filepath.Join(dir, RecommendationsFile))
	if err != nil {
		t.Fatalf("read recommendations: %v", err)
	}
	if !strings.HasPrefix(string(data), "client_code,name,current_product,") {
		t.Errorf("unexpected recommendations header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	md, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(md) != RenderMarkdown(report) {
		t.Error("written markdown differs from rendered markdown")
	}
}
