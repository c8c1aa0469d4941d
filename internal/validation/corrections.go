package validation

import (
	"fmt"
	"math"
	"time"

	"daily-price-pipeline/internal/model"
)

// applyCorrections repairs non-critical defects in a copy of the input
// table. The input is never mutated; each repair is reported as an
// informational issue.
func (v *Validator) applyCorrections(t model.Table, symbol string) (model.Table, []Issue) {
	var issues []Issue

	rows := t.SortedByDatetime()
	if wasReordered(t.Rows) {
		issues = append(issues, Issue{
			Type:        IssueDateOrder,
			Severity:    SeverityInfo,
			Description: "rows reordered into ascending datetime order",
			Symbol:      symbol,
		})
	}

	rows, interpolated := v.interpolateShortGaps(rows)
	if interpolated > 0 {
		issues = append(issues, Issue{
			Type:        IssueDateGap,
			Severity:    SeverityInfo,
			Description: fmt.Sprintf("interpolated %d missing trading days", interpolated),
			Symbol:      symbol,
		})
	}

	coerced := 0
	filled := 0
	for i := range rows {
		switch {
		case model.IsNull(rows[i].Volume):
			rows[i].Volume = 0
			coerced++
		case rows[i].Volume != math.Trunc(rows[i].Volume):
			rows[i].Volume = math.Round(rows[i].Volume)
			coerced++
		}
		if model.IsNull(rows[i].AdjClose) && !model.IsNull(rows[i].Close) {
			rows[i].AdjClose = rows[i].Close
			filled++
		}
		if rows[i].Date == "" && rows[i].HasDatetime() {
			rows[i].Date = rows[i].Datetime.Format(model.DateLayout)
		}
	}
	if coerced > 0 {
		issues = append(issues, Issue{
			Type:        IssueInvalidType,
			Severity:    SeverityInfo,
			Description: fmt.Sprintf("coerced %d volume values to whole numbers", coerced),
			Symbol:      symbol,
		})
	}
	if filled > 0 {
		issues = append(issues, Issue{
			Type:        IssueMissingData,
			Severity:    SeverityInfo,
			Description: fmt.Sprintf("filled %d missing adj_close values from close", filled),
			Symbol:      symbol,
		})
	}

	corrected := model.Table{Columns: correctedColumns(t), Rows: rows}
	return corrected, issues
}

func wasReordered(rows []model.PriceRecord) bool {
	for i := 1; i < len(rows); i++ {
		if rows[i-1].HasDatetime() && rows[i].HasDatetime() &&
			rows[i].Datetime.Before(rows[i-1].Datetime) {
			return true
		}
	}
	return false
}

// interpolateShortGaps fills runs of up to MaxMissingDays missing
// weekdays between consecutive records with linearly interpolated
// rows. Weekend days are never synthesized, so an ordinary Friday to
// Monday gap stays untouched.
func (v *Validator) interpolateShortGaps(rows []model.PriceRecord) ([]model.PriceRecord, int) {
	if len(rows) < 2 {
		return rows, 0
	}

	out := make([]model.PriceRecord, 0, len(rows))
	out = append(out, rows[0])
	inserted := 0

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.HasDatetime() && cur.HasDatetime() {
			gapDays := daysBetween(prev.Datetime, cur.Datetime)
			missing := missingWeekdays(prev.Datetime, cur.Datetime)
			if len(missing) > 0 && len(missing) <= v.opts.MaxMissingDays {
				for _, day := range missing {
					frac := float64(daysBetween(prev.Datetime, day)) / float64(gapDays)
					out = append(out, interpolateRow(prev, cur, day, frac))
					inserted++
				}
			}
		}
		out = append(out, cur)
	}

	return out, inserted
}

func missingWeekdays(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from.AddDate(0, 0, 1); d.Before(to); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

func interpolateRow(prev, cur model.PriceRecord, day time.Time, frac float64) model.PriceRecord {
	lerp := func(a, b float64) float64 {
		if model.IsNull(a) || model.IsNull(b) {
			return math.NaN()
		}
		return a + (b-a)*frac
	}
	return model.PriceRecord{
		Datetime: day,
		Date:     day.Format(model.DateLayout),
		Symbol:   prev.Symbol,
		Open:     lerp(prev.Open, cur.Open),
		High:     lerp(prev.High, cur.High),
		Low:      lerp(prev.Low, cur.Low),
		Close:    lerp(prev.Close, cur.Close),
		AdjClose: lerp(prev.AdjClose, cur.AdjClose),
		Volume:   math.Round(lerp(prev.Volume, cur.Volume)),
		Currency: prev.Currency,
		Exchange: prev.Exchange,
	}
}

func correctedColumns(t model.Table) []model.Column {
	cols := make([]model.Column, len(t.Columns))
	copy(cols, t.Columns)
	for i := range cols {
		if cols[i].Name == model.ColVolume {
			cols[i].Kind = model.KindInteger
		}
	}
	return cols
}
