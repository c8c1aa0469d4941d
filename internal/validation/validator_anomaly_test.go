package validation

import "testing"

func TestAnomalyExtremeVariationIsWarning(t *testing.T) {
	v := testValidator(false)
	table := weekdayTable(t)
	for i := range table.Rows {
		table.Rows[i].Close = 100.0
	}
	table.Rows[3].Close = 130.0 // +30% over the prior day

	issues := issuesOfType(v.validateMarketAnomalies(table, "TEST"), IssueExtremeVariation)
	if len(issues) != 1 {
		t.Fatalf("expected one extreme_variation issue, got %+v", issues)
	}
	if issues[0].Severity != SeverityWarning {
		t.Fatalf("market shocks are legitimate: must be WARNING, got %s", issues[0].Severity)
	}
}

func TestAnomalyStageNeverCritical(t *testing.T) {
	v := testValidator(false)
	table := weekdayTable(t)
	table.Rows[2].Close = 500.0
	table.Rows[3].Close = 10.0

	for _, issue := range v.validateMarketAnomalies(table, "TEST") {
		if issue.Severity == SeverityCritical {
			t.Fatalf("anomaly stage must not emit CRITICAL: %+v", issue)
		}
	}
}

func TestAnomalyVolumeSpike(t *testing.T) {
	v := testValidator(false)
	dates := []string{
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-06", "2025-01-07",
		"2025-01-08", "2025-01-09", "2025-01-10", "2025-01-13", "2025-01-14",
		"2025-01-15", "2025-01-16", "2025-01-17", "2025-01-20", "2025-01-21",
		"2025-01-22", "2025-01-23", "2025-01-24", "2025-01-27", "2025-01-28",
		"2025-01-29",
	}
	table := baseTable(t, dates...)
	table.Rows[10].Volume = 300000 // 1000 everywhere else

	issues := issuesOfType(v.validateMarketAnomalies(table, "TEST"), IssueVolumeAnomaly)
	if len(issues) != 1 || issues[0].Severity != SeverityWarning {
		t.Fatalf("expected one volume_anomaly WARNING, got %+v", issues)
	}
	if len(issues[0].AffectedRows) != 1 || issues[0].AffectedRows[0] != 10 {
		t.Fatalf("expected affected row 10, got %v", issues[0].AffectedRows)
	}
}

func TestAnomalyRowsOnUnsortedInput(t *testing.T) {
	v := testValidator(false)
	// The spike day comes first in the input but third by date.
	table := baseTable(t, "2025-01-08", "2025-01-06", "2025-01-07", "2025-01-09", "2025-01-10")
	for i := range table.Rows {
		table.Rows[i].Close = 100.0
	}
	table.Rows[0].Close = 130.0

	issues := issuesOfType(v.validateMarketAnomalies(table, "TEST"), IssueExtremeVariation)
	if len(issues) != 1 {
		t.Fatalf("expected one extreme_variation issue, got %+v", issues)
	}
	// Both the jump onto the spike day (row 0) and the drop off it
	// (row 3, 2025-01-09) exceed the threshold.
	rows := issues[0].AffectedRows
	if len(rows) != 2 || rows[0] != 0 || rows[1] != 3 {
		t.Fatalf("affected rows must reference input positions, got %v", rows)
	}
}
