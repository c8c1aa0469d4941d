package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
	"daily-price-pipeline/internal/validation"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := New(Options{Dir: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func chartTable(days int) model.Table {
	rows := make([]model.PriceRecord, 0, days)
	for i := 0; i < days; i++ {
		day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		rows = append(rows, model.PriceRecord{
			Datetime: day,
			Date:     day.Format(model.DateLayout),
			Symbol:   "AAPL",
			Open:     100, High: 105, Low: 95,
			Close:    100 + float64(i),
			AdjClose: 100 + float64(i),
			Volume:   1000 + float64(i*10),
		})
	}
	return model.NewTable(rows)
}

func TestPriceChartWritesPNG(t *testing.T) {
	g := testGenerator(t)

	path, err := g.PriceChart("ASML.AS", chartTable(30))
	if err != nil {
		t.Fatalf("PriceChart: %v", err)
	}
	if !strings.HasSuffix(path, "ASML_AS_prices.png") {
		t.Fatalf("path = %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("chart file is empty")
	}
}

func TestPriceChartRejectsEmptyTable(t *testing.T) {
	g := testGenerator(t)
	if _, err := g.PriceChart("AAPL", model.Table{}); err == nil {
		t.Fatal("expected an error for an empty table")
	}
}

func TestQualityReportContents(t *testing.T) {
	g := testGenerator(t)
	g.now = func() time.Time {
		return time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	}

	entries := []QualityEntry{
		{
			Symbol: "AAPL",
			Rows:   250,
			Start:  "2024-01-02",
			End:    "2025-01-10",
			Summary: validation.Summary{
				IsValid: true, Symbol: "AAPL", TotalIssues: 1, InfoCount: 1,
			},
		},
		{
			Symbol: "BAD.L",
			Rows:   10,
			Start:  "2025-01-02",
			End:    "2025-01-10",
			Summary: validation.Summary{
				Symbol: "BAD.L", TotalIssues: 1, CriticalCount: 1,
			},
			Issues: []validation.Issue{{
				Type:        validation.IssueNegativePrice,
				Severity:    validation.SeverityCritical,
				Description: "column open has 2 non-positive prices",
			}},
		},
	}

	path, err := g.QualityReport(entries)
	if err != nil {
		t.Fatalf("QualityReport: %v", err)
	}
	if !strings.HasSuffix(path, "quality_2025-01-10.html") {
		t.Fatalf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"AAPL", "BAD.L", "negative_price", `class="critical"`, "valid", "rejected"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestDownsampleRowsKeepsEndpoints(t *testing.T) {
	rows := chartTable(100).SortedByDatetime()
	down := downsampleRows(rows, 10)
	if len(down) != 10 {
		t.Fatalf("len = %d", len(down))
	}
	if !down[0].Datetime.Equal(rows[0].Datetime) {
		t.Fatal("first point lost")
	}
	if !down[len(down)-1].Datetime.Equal(rows[len(rows)-1].Datetime) {
		t.Fatal("last point lost")
	}
}
