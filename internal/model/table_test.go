package model

import (
	"math"
	"testing"
	"time"
)

func rowOn(day time.Time) PriceRecord {
	return PriceRecord{
		Datetime: day,
		Date:     day.Format(DateLayout),
		Open:     100, High: 105, Low: 95, Close: 102, AdjClose: 102, Volume: 1000,
	}
}

func TestNewTableCarriesFullSchema(t *testing.T) {
	table := NewTable(nil)
	if !table.HasColumns(ColDatetime, ColOpen, ColHigh, ColLow, ColClose, ColAdjClose, ColVolume) {
		t.Fatal("canonical columns missing")
	}
	if table.ColumnKind(ColVolume) != KindInteger {
		t.Fatalf("volume kind = %s", table.ColumnKind(ColVolume))
	}
	if table.ColumnKind("bid") != "" {
		t.Fatal("unknown column should have empty kind")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	table := NewTable([]PriceRecord{rowOn(day)})

	clone := table.Clone()
	clone.Rows[0].Close = 999
	clone.Columns[0].Kind = KindString

	if table.Rows[0].Close != 102 {
		t.Fatal("mutating the clone changed the source rows")
	}
	if table.Columns[0].Kind != KindTime {
		t.Fatal("mutating the clone changed the source columns")
	}
}

func TestSortedByDatetimeIsStableCopy(t *testing.T) {
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	first := rowOn(monday)
	first.Open = 1
	second := rowOn(monday)
	second.Open = 2

	table := NewTable([]PriceRecord{rowOn(tuesday), first, second})
	sorted := table.SortedByDatetime()

	if !sorted[0].Datetime.Equal(monday) || !sorted[2].Datetime.Equal(tuesday) {
		t.Fatalf("not sorted: %+v", sorted)
	}
	if sorted[0].Open != 1 || sorted[1].Open != 2 {
		t.Fatal("equal datetimes must keep input order")
	}
	if !table.Rows[0].Datetime.Equal(tuesday) {
		t.Fatal("source rows were reordered")
	}
}

func TestDateRangeSkipsMissingDatetimes(t *testing.T) {
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	table := NewTable([]PriceRecord{rowOn(friday), {}, rowOn(monday)})
	min, max := table.DateRange()
	if !min.Equal(monday) || !max.Equal(friday) {
		t.Fatalf("range = %v .. %v", min, max)
	}
}

func TestIsNull(t *testing.T) {
	if !IsNull(math.NaN()) {
		t.Fatal("NaN must read as null")
	}
	if IsNull(0) {
		t.Fatal("zero is a value, not null")
	}
}
