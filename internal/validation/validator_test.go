package validation

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
)

func testValidator(autoCorrect bool) *Validator {
	return New(Options{AutoCorrect: autoCorrect}, zerolog.Nop())
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return parsed
}

// baseTable builds a valid table with one row per date.
func baseTable(t *testing.T, dates ...string) model.Table {
	t.Helper()
	rows := make([]model.PriceRecord, len(dates))
	for i, d := range dates {
		rows[i] = model.PriceRecord{
			Datetime: day(t, d),
			Date:     d,
			Symbol:   "TEST",
			Open:     100.0,
			High:     105.0,
			Low:      95.0,
			Close:    102.0,
			AdjClose: 102.0,
			Volume:   1000,
			Currency: "USD",
			Exchange: "US",
		}
	}
	return model.NewTable(rows)
}

func weekdayTable(t *testing.T) model.Table {
	return baseTable(t, "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09", "2025-01-10", "2025-01-13")
}

func issuesOfType(issues []Issue, typ IssueType) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Type == typ {
			out = append(out, i)
		}
	}
	return out
}

func TestValidateRequiresSymbol(t *testing.T) {
	v := testValidator(false)
	if _, err := v.Validate(weekdayTable(t), ""); err == nil {
		t.Fatal("expected an error for a missing symbol")
	}
}

func TestValidateEmptyTable(t *testing.T) {
	v := testValidator(true)
	result, err := v.Validate(model.NewTable(nil), "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if result.IsValid {
		t.Fatal("empty table must be invalid")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %+v", len(result.Issues), result.Issues)
	}
	issue := result.Issues[0]
	if issue.Type != IssueMissingData || issue.Severity != SeverityCritical {
		t.Fatalf("expected CRITICAL missing_data, got %s %s", issue.Severity, issue.Type)
	}
	if result.CorrectedData != nil {
		t.Fatal("corrected data must be nil for a rejected dataset")
	}
}

func TestValidateMissingColumns(t *testing.T) {
	v := testValidator(false)
	table := model.Table{
		Columns: []model.Column{
			{Name: model.ColOpen, Kind: model.KindNumeric},
			{Name: model.ColClose, Kind: model.KindNumeric},
		},
		Rows: []model.PriceRecord{
			{Open: 100, Close: 102},
			{Open: 101, Close: 103},
		},
	}

	issues := v.validateBasicStructure(table, "TEST")
	missing := issuesOfType(issues, IssueMissingData)
	if len(missing) == 0 {
		t.Fatal("expected a missing-columns issue")
	}
	if missing[0].Severity != SeverityCritical {
		t.Fatalf("missing columns must be CRITICAL, got %s", missing[0].Severity)
	}
}

func TestValidateTypeMismatches(t *testing.T) {
	v := testValidator(false)

	table := weekdayTable(t)
	for i := range table.Columns {
		switch table.Columns[i].Name {
		case model.ColVolume:
			table.Columns[i].Kind = model.KindNumeric
		case model.ColOpen:
			table.Columns[i].Kind = model.KindString
		}
	}

	issues := issuesOfType(v.validateBasicStructure(table, "TEST"), IssueInvalidType)
	if len(issues) != 2 {
		t.Fatalf("expected 2 type issues, got %d: %+v", len(issues), issues)
	}

	var sawVolumeWarning, sawOpenCritical bool
	for _, issue := range issues {
		if issue.Severity == SeverityWarning {
			sawVolumeWarning = true
		}
		if issue.Severity == SeverityCritical {
			sawOpenCritical = true
		}
	}
	if !sawVolumeWarning {
		t.Fatal("numeric volume column should be a WARNING (coercible)")
	}
	if !sawOpenCritical {
		t.Fatal("non-numeric price column should be CRITICAL")
	}
}

func TestValidateNullValues(t *testing.T) {
	v := testValidator(false)

	table := weekdayTable(t)
	table.Rows[2].Close = math.NaN()
	table.Rows[3].Volume = math.NaN()
	table.Rows[4].AdjClose = math.NaN()

	issues := v.validateBasicStructure(table, "TEST")

	var criticalNull, warningNulls int
	for _, issue := range issuesOfType(issues, IssueMissingData) {
		switch issue.Severity {
		case SeverityCritical:
			criticalNull++
			if len(issue.AffectedRows) != 1 || issue.AffectedRows[0] != 2 {
				t.Fatalf("critical null should name row 2, got %v", issue.AffectedRows)
			}
		case SeverityWarning:
			warningNulls++
		}
	}
	if criticalNull != 1 {
		t.Fatalf("expected 1 critical null issue, got %d", criticalNull)
	}
	if warningNulls != 2 {
		t.Fatalf("expected 2 warning null issues (volume, adj_close), got %d", warningNulls)
	}
}

func TestValidateMinimumRows(t *testing.T) {
	v := testValidator(false)
	table := baseTable(t, "2025-01-06", "2025-01-07")
	issues := v.validateBasicStructure(table, "TEST")
	if len(issues) != 1 || issues[0].Severity != SeverityCritical {
		t.Fatalf("a 2-row table should yield one CRITICAL row-count issue, got %+v", issues)
	}
}

func TestValidateCleanTable(t *testing.T) {
	v := testValidator(false)
	result, err := v.Validate(weekdayTable(t), "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("clean table should be valid, issues: %+v", result.Issues)
	}
	if len(result.CriticalIssues()) != 0 || len(result.WarningIssues()) != 0 {
		t.Fatalf("clean table should only carry informational issues, got %+v", result.Issues)
	}
}
