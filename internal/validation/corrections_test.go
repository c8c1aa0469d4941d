package validation

import (
	"math"
	"testing"

	"daily-price-pipeline/internal/model"
)

func TestCorrectionsReorder(t *testing.T) {
	v := testValidator(true)
	table := baseTable(t, "2025-01-06", "2025-01-08", "2025-01-07", "2025-01-09", "2025-01-10")

	result, err := v.Validate(table, "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if result.CorrectedData == nil {
		t.Fatal("expected corrected data for an accepted dataset")
	}

	rows := result.CorrectedData.Rows
	for i := 1; i < len(rows); i++ {
		if rows[i].Datetime.Before(rows[i-1].Datetime) {
			t.Fatalf("corrected rows not sorted at index %d", i)
		}
	}

	// The input table must not have been touched.
	if table.Rows[1].Date != "2025-01-08" {
		t.Fatal("validation mutated its input")
	}
}

func TestCorrectionsInterpolateShortGap(t *testing.T) {
	v := testValidator(true)
	// Tuesday missing between Monday and Wednesday.
	table := baseTable(t, "2025-01-06", "2025-01-08", "2025-01-09", "2025-01-10", "2025-01-13")
	table.Rows[0].Close = 100.0
	table.Rows[1].Close = 104.0

	result, err := v.Validate(table, "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	rows := result.CorrectedData.Rows
	if len(rows) != 6 {
		t.Fatalf("expected 1 interpolated row, got %d rows", len(rows))
	}
	inserted := rows[1]
	if inserted.Date != "2025-01-07" {
		t.Fatalf("expected interpolated date 2025-01-07, got %s", inserted.Date)
	}
	if math.Abs(inserted.Close-102.0) > 1e-9 {
		t.Fatalf("expected midpoint close 102.0, got %f", inserted.Close)
	}
}

func TestCorrectionsSkipWeekendAndLongGaps(t *testing.T) {
	v := testValidator(true)
	// Friday to Monday, then Monday to the following Monday.
	table := baseTable(t, "2025-01-08", "2025-01-09", "2025-01-10", "2025-01-13", "2025-01-20")

	result, err := v.Validate(table, "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if got := len(result.CorrectedData.Rows); got != len(table.Rows) {
		t.Fatalf("weekend/long gaps must not be interpolated, got %d rows", got)
	}
}

func TestCorrectionsCoerceVolumeAndAdjClose(t *testing.T) {
	v := testValidator(true)
	table := weekdayTable(t)
	table.Rows[1].Volume = 1000.4
	table.Rows[2].AdjClose = math.NaN()

	result, err := v.Validate(table, "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	rows := result.CorrectedData.Rows
	if rows[1].Volume != 1000 {
		t.Fatalf("expected coerced volume 1000, got %f", rows[1].Volume)
	}
	if rows[2].AdjClose != rows[2].Close {
		t.Fatalf("expected adj_close backfilled from close, got %f", rows[2].AdjClose)
	}
	if result.CorrectedData.ColumnKind(model.ColVolume) != model.KindInteger {
		t.Fatal("corrected volume column should be integer-typed")
	}
}

func TestCorrectionsBlockedByCritical(t *testing.T) {
	v := testValidator(true)
	table := weekdayTable(t)
	table.Rows[1].Open = -50.0

	result, err := v.Validate(table, "TEST")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if result.IsValid {
		t.Fatal("negative price must reject the dataset")
	}
	if result.CorrectedData != nil {
		t.Fatal("corrected data must never be populated alongside a CRITICAL issue")
	}
}
