package model

import (
	"sort"
	"time"
)

// Kind is the semantic type a provider payload delivered for a column.
type Kind string

const (
	KindTime    Kind = "time"
	KindNumeric Kind = "numeric"
	KindInteger Kind = "integer"
	KindString  Kind = "string"
)

// Column describes one canonical column as observed in a raw payload.
type Column struct {
	Name string
	Kind Kind
}

// Canonical column names, in schema order.
const (
	ColDatetime = "datetime"
	ColDate     = "date"
	ColSymbol   = "symbol"
	ColOpen     = "open"
	ColHigh     = "high"
	ColLow      = "low"
	ColClose    = "close"
	ColAdjClose = "adj_close"
	ColVolume   = "volume"
	ColCurrency = "currency"
	ColExchange = "exchange"
)

// RequiredColumns is the full canonical schema with expected kinds.
var RequiredColumns = []Column{
	{ColDatetime, KindTime},
	{ColDate, KindString},
	{ColSymbol, KindString},
	{ColOpen, KindNumeric},
	{ColHigh, KindNumeric},
	{ColLow, KindNumeric},
	{ColClose, KindNumeric},
	{ColAdjClose, KindNumeric},
	{ColVolume, KindInteger},
	{ColCurrency, KindString},
	{ColExchange, KindString},
}

// Table is the canonical tabular result of a provider fetch: rows plus
// the columns the raw payload actually carried. Adapters record column
// presence and kind so the structural validation stage can check the
// schema instead of introspecting the payload again.
type Table struct {
	Columns []Column
	Rows    []PriceRecord
}

// NewTable builds a table over the full canonical schema.
func NewTable(rows []PriceRecord) Table {
	cols := make([]Column, len(RequiredColumns))
	copy(cols, RequiredColumns)
	return Table{Columns: cols, Rows: rows}
}

// Empty reports whether the table holds no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether the payload carried the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasColumns reports whether every named column is present.
func (t Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if !t.HasColumn(n) {
			return false
		}
	}
	return true
}

// ColumnKind returns the observed kind for a column, or "" if absent.
func (t Table) ColumnKind(name string) Kind {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Kind
		}
	}
	return ""
}

// Clone returns a deep copy; mutating the copy never touches t.
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]PriceRecord, len(t.Rows))
	copy(rows, t.Rows)
	return Table{Columns: cols, Rows: rows}
}

// SortedByDatetime returns a copy of the rows in ascending datetime
// order. The sort is stable so ties keep their original order.
func (t Table) SortedByDatetime() []PriceRecord {
	rows := make([]PriceRecord, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Datetime.Before(rows[j].Datetime)
	})
	return rows
}

// DateRange returns the minimum and maximum datetimes present.
func (t Table) DateRange() (min, max time.Time) {
	for _, r := range t.Rows {
		if !r.HasDatetime() {
			continue
		}
		if min.IsZero() || r.Datetime.Before(min) {
			min = r.Datetime
		}
		if max.IsZero() || r.Datetime.After(max) {
			max = r.Datetime
		}
	}
	return min, max
}
