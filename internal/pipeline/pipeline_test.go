package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/ginjaninja78/sales-analytics/internal/report"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

const salesLog = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-12-01|P101|Laptop|2|45,000|C001|North
T002|2024-12-01|P102|Mouse|5|500|C002|South
T003|2024-12-02|P101|Laptop|1|45000|C003|North
T004|2024-12-02|P103|Keyboard|3|1500|C001|East
X005|2024-12-03|P102|Mouse|1|500|C004|West
T006|2024-12-03|P104|Monitor|0|12000|C005|North
T007|2024-12-03|P105|Webcam|2
`

type stubLoader struct {
	catalog types.Catalog
	err     error
	calls   int
}

func (s *stubLoader) Load(ctx context.Context) (types.Catalog, error) {
	s.calls++
	return s.catalog, s.err
}

func laptopCatalog() types.Catalog {
	category, brand, rating := "laptops", "Apple", 4.7
	return types.Catalog{101: {Category: &category, Brand: &brand, Rating: &rating}}
}

func setup(t *testing.T) (string, *config.MainConfig) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "sales_data.txt")
	if err := os.WriteFile(input, []byte(salesLog), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultMainConfig()
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.EnrichedFile = filepath.Join(dir, "data", "enriched_sales_data.txt")
	return input, cfg
}

func fixedNow() time.Time {
	return time.Date(2024, 12, 5, 10, 0, 0, 0, time.UTC)
}

func TestRun(t *testing.T) {
	input, cfg := setup(t)
	cfg.ArchiveDir = filepath.Join(filepath.Dir(input), "archive")
	cfg.WriteRejectionLog = true
	loader := &stubLoader{catalog: laptopCatalog()}

	result := New(input, cfg, loader, Options{Now: fixedNow}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}

	s := result.Stats.Validation
	if s.TotalInput != 7 || s.Invalid != 3 || s.Malformed != 1 || s.FinalCount != 4 {
		t.Errorf("validation summary = %+v", s)
	}
	if result.Stats.TotalRevenue.StringFixed(2) != "142000.00" {
		t.Errorf("total revenue = %s", result.Stats.TotalRevenue)
	}
	if result.Stats.CatalogStatus != report.CatalogLoaded || loader.calls != 1 {
		t.Errorf("catalog status = %s after %d calls", result.Stats.CatalogStatus, loader.calls)
	}
	if e := result.Stats.Enrichment; e.Total != 4 || e.Matched != 2 {
		t.Errorf("enrichment = %+v", e)
	}

	body, err := os.ReadFile(result.ReportFile)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	text := string(body)
	for _, want := range []string{"Records Processed: 7", "₹142,000.00", "Catalog status:"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}

	enriched, err := os.ReadFile(result.EnrichedFile)
	if err != nil {
		t.Fatalf("enriched file not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(enriched)), "\n")
	if len(lines) != 5 {
		t.Fatalf("enriched lines = %d, want 5", len(lines))
	}
	if !strings.HasSuffix(lines[1], "|laptops|Apple|4.7|True") {
		t.Errorf("first enriched row = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "||||False") {
		t.Errorf("second enriched row = %q", lines[2])
	}

	if result.ArchivePath == "" {
		t.Errorf("report was not archived")
	}
	rejections, err := os.ReadFile(result.RejectionLog)
	if err != nil {
		t.Fatalf("rejection log not written: %v", err)
	}
	if !strings.Contains(string(rejections), "Total Rejections: 3") {
		t.Errorf("rejection log:\n%s", rejections)
	}
}

func TestRunCatalogUnavailable(t *testing.T) {
	input, cfg := setup(t)
	loader := &stubLoader{err: errors.New("connection refused")}

	result := New(input, cfg, loader, Options{}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}
	if result.Stats.CatalogStatus != report.CatalogUnavailable {
		t.Errorf("catalog status = %s", result.Stats.CatalogStatus)
	}
	if result.Stats.Enrichment.Matched != 0 || result.Stats.Enrichment.Total != 4 {
		t.Errorf("enrichment = %+v", result.Stats.Enrichment)
	}
}

func TestRunSkipCatalog(t *testing.T) {
	input, cfg := setup(t)
	loader := &stubLoader{catalog: laptopCatalog()}

	result := New(input, cfg, loader, Options{SkipCatalog: true}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}
	if loader.calls != 0 {
		t.Errorf("loader called %d times", loader.calls)
	}
	if result.Stats.CatalogStatus != report.CatalogSkipped {
		t.Errorf("catalog status = %s", result.Stats.CatalogStatus)
	}
}

func TestRunDryRun(t *testing.T) {
	input, cfg := setup(t)
	var out bytes.Buffer

	result := New(input, cfg, nil, Options{DryRun: true, Out: &out}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}
	if result.ReportFile != "" || result.EnrichedFile != "" {
		t.Errorf("dry run wrote files: %+v", result)
	}
	if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
		t.Errorf("dry run created the output directory")
	}
	if !strings.Contains(out.String(), "SALES ANALYTICS REPORT") {
		t.Errorf("report not rendered to output")
	}
}

func TestRunFilters(t *testing.T) {
	input, cfg := setup(t)
	cfg.Filters.Region = " North "
	minAmount := 50000.0
	cfg.Filters.MinAmount = &minAmount

	result := New(input, cfg, nil, Options{DryRun: true, Out: &bytes.Buffer{}}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}

	s := result.Stats.Validation
	if s.FilteredByRegion != 2 || s.FilteredByAmount != 1 || s.FinalCount != 1 {
		t.Errorf("validation summary = %+v", s)
	}
	if got := strings.Join(result.Stats.Diagnostics.Regions, ","); got != "East,North,South,West" {
		t.Errorf("regions = %s", got)
	}
}

func TestRunMissingInput(t *testing.T) {
	_, cfg := setup(t)

	result := New(filepath.Join(t.TempDir(), "missing.txt"), cfg, nil, Options{}).Run(context.Background())
	if result.Success || result.Error == nil {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestPerInputNames(t *testing.T) {
	input, cfg := setup(t)
	cfg.EnrichedFile = ""
	cfg.WorkbookFile = "summary"

	result := New(input, cfg, nil, Options{PerInputNames: true, XMLFile: "{input}.xml"}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}
	if filepath.Base(result.ReportFile) != "sales_data_sales_report.txt" {
		t.Errorf("report file = %s", result.ReportFile)
	}
	if result.EnrichedFile != "" {
		t.Errorf("enriched export written although disabled")
	}
	if filepath.Base(result.WorkbookFile) != "sales_data_summary.xlsx" {
		t.Errorf("workbook file = %s", result.WorkbookFile)
	}
	if filepath.Base(result.XMLFile) != "sales_data.xml" {
		t.Errorf("xml file = %s", result.XMLFile)
	}
	for _, path := range []string{result.WorkbookFile, result.XMLFile} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("export missing: %v", err)
		}
	}
}

func TestRunReportInSubdirectory(t *testing.T) {
	input, cfg := setup(t)
	cfg.ReportFile = filepath.Join("reports", "sales.txt")
	cfg.XMLFile = filepath.Join("xml", "sales.xml")

	result := New(input, cfg, nil, Options{}).Run(context.Background())
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}

	if want := filepath.Join(cfg.OutputDir, "reports", "sales.txt"); result.ReportFile != want {
		t.Errorf("report file = %s, want %s", result.ReportFile, want)
	}
	for _, path := range []string{result.ReportFile, result.XMLFile} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output missing: %v", err)
		}
	}
}

func TestLoadCatalogWrapsErrors(t *testing.T) {
	_, cfg := setup(t)
	p := New("unused", cfg, &stubLoader{err: catalog.ErrCatalogUnavailable}, Options{})

	got, status := p.loadCatalog(context.Background(), logger.L)
	if status != report.CatalogUnavailable || len(got) != 0 {
		t.Errorf("status = %s, catalog = %v", status, got)
	}

	cfg.Catalog.Disabled = true
	if _, status := p.loadCatalog(context.Background(), logger.L); status != report.CatalogSkipped {
		t.Errorf("disabled catalog status = %s", status)
	}
}
