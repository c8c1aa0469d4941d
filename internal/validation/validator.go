package validation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
)

const (
	// priceTolerance absorbs floating-point noise in near-equality
	// comparisons, in absolute currency units.
	priceTolerance = 0.01

	// minRows is the smallest dataset worth persisting.
	minRows = 5

	// consecutiveGapRatio is the fraction of one-day gaps below which
	// a series is reported as sparse.
	consecutiveGapRatio = 0.6

	// volumeSpikeMultiple flags volumes this many times above the mean.
	volumeSpikeMultiple = 10.0
)

// Options tune the validator.
type Options struct {
	// AutoCorrect enables the correction pass on accepted datasets.
	AutoCorrect bool
	// MaxDailyVariation is the day-over-day close change treated as an
	// outlier. Defaults to 0.20 (20%).
	MaxDailyVariation float64
	// MaxMissingDays is the largest run of missing trading days the
	// correction pass will interpolate. Defaults to 2.
	MaxMissingDays int
}

// Validator runs the four-stage rule pipeline over a canonical table.
type Validator struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a validator.
func New(opts Options, logger zerolog.Logger) *Validator {
	if opts.MaxDailyVariation <= 0 {
		opts.MaxDailyVariation = 0.20
	}
	if opts.MaxMissingDays <= 0 {
		opts.MaxMissingDays = 2
	}
	return &Validator{
		opts:   opts,
		logger: logger.With().Str("component", "validator").Logger(),
	}
}

// Validate runs all stages in order and, when enabled and no critical
// issue was found, the correction pass. Data-quality problems are
// reported as issues, never as errors; the returned error covers
// invocation mistakes only.
func (v *Validator) Validate(t model.Table, symbol string) (Result, error) {
	if symbol == "" {
		return Result{}, errors.New("validation: symbol is required")
	}

	v.logger.Info().
		Str("symbol", symbol).
		Int("rows", len(t.Rows)).
		Msg("starting validation")

	issues := v.validateBasicStructure(t, symbol)
	issues = append(issues, v.validateFinancialConsistency(t, symbol)...)
	issues = append(issues, v.validateTemporalSequence(t, symbol)...)
	issues = append(issues, v.validateMarketAnomalies(t, symbol)...)

	critical := 0
	for _, i := range issues {
		if i.Severity == SeverityCritical {
			critical++
		}
	}

	// Corrections apply only to accepted datasets; a critical issue
	// always leaves CorrectedData nil.
	var corrected *model.Table
	if v.opts.AutoCorrect && critical == 0 {
		ct, correctionIssues := v.applyCorrections(t, symbol)
		corrected = &ct
		issues = append(issues, correctionIssues...)
	}

	result := Result{
		IsValid:       critical == 0,
		Symbol:        symbol,
		Issues:        issues,
		CorrectedData: corrected,
	}

	summary := result.Summarize()
	v.logger.Info().
		Str("symbol", symbol).
		Bool("is_valid", summary.IsValid).
		Int("total_issues", summary.TotalIssues).
		Int("critical", summary.CriticalCount).
		Int("warnings", summary.WarningCount).
		Int("info", summary.InfoCount).
		Msg("validation finished")

	for _, issue := range result.CriticalIssues() {
		v.logger.Error().Fields(issue.Fields()).Msg("critical validation issue")
	}

	return result, nil
}

// Stage 1: structure, column presence, semantic types, nulls, size.
func (v *Validator) validateBasicStructure(t model.Table, symbol string) []Issue {
	if t.Empty() {
		return []Issue{{
			Type:         IssueMissingData,
			Severity:     SeverityCritical,
			Description:  "dataset is empty",
			Symbol:       symbol,
			SuggestedFix: "re-fetch from provider",
		}}
	}

	var issues []Issue

	var missing []string
	for _, col := range model.RequiredColumns {
		if !t.HasColumn(col.Name) {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, Issue{
			Type:        IssueMissingData,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("missing required columns: %v", missing),
			Symbol:      symbol,
		})
	}

	for _, col := range model.RequiredColumns {
		got := t.ColumnKind(col.Name)
		if got == "" || got == col.Kind {
			continue
		}
		if col.Name == model.ColVolume && got == model.KindNumeric {
			// Coercible: the payload delivered volume as a generic
			// number rather than a whole number.
			issues = append(issues, Issue{
				Type:         IssueInvalidType,
				Severity:     SeverityWarning,
				Description:  "volume column is numeric but not integer-typed",
				Symbol:       symbol,
				SuggestedFix: "coerce volume to integer",
			})
			continue
		}
		issues = append(issues, Issue{
			Type:        IssueInvalidType,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("column %q has kind %s, expected %s", col.Name, got, col.Kind),
			Symbol:      symbol,
		})
	}

	issues = append(issues, v.checkNulls(t, symbol)...)

	if len(t.Rows) < minRows {
		issues = append(issues, Issue{
			Type:        IssueMissingData,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("only %d rows, minimum is %d", len(t.Rows), minRows),
			Symbol:      symbol,
		})
	}

	return issues
}

func (v *Validator) checkNulls(t model.Table, symbol string) []Issue {
	type nullCheck struct {
		column   string
		severity Severity
		isNull   func(model.PriceRecord) bool
	}
	checks := []nullCheck{
		{model.ColDatetime, SeverityCritical, func(r model.PriceRecord) bool { return !r.HasDatetime() }},
		{model.ColOpen, SeverityCritical, func(r model.PriceRecord) bool { return model.IsNull(r.Open) }},
		{model.ColHigh, SeverityCritical, func(r model.PriceRecord) bool { return model.IsNull(r.High) }},
		{model.ColLow, SeverityCritical, func(r model.PriceRecord) bool { return model.IsNull(r.Low) }},
		{model.ColClose, SeverityCritical, func(r model.PriceRecord) bool { return model.IsNull(r.Close) }},
		{model.ColVolume, SeverityWarning, func(r model.PriceRecord) bool { return model.IsNull(r.Volume) }},
		{model.ColAdjClose, SeverityWarning, func(r model.PriceRecord) bool { return model.IsNull(r.AdjClose) }},
	}

	var issues []Issue
	for _, check := range checks {
		if !t.HasColumn(check.column) {
			continue
		}
		var rows []int
		for i, r := range t.Rows {
			if check.isNull(r) {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			continue
		}
		issues = append(issues, Issue{
			Type:         IssueMissingData,
			Severity:     check.severity,
			Description:  fmt.Sprintf("%d null values in column %q", len(rows), check.column),
			Symbol:       symbol,
			AffectedRows: rows,
		})
	}
	return issues
}

// Stage 2: OHLCV consistency. No-ops when the price columns are absent;
// the structural stage already reported that.
func (v *Validator) validateFinancialConsistency(t model.Table, symbol string) []Issue {
	if t.Empty() || !t.HasColumns(model.ColOpen, model.ColHigh, model.ColLow, model.ColClose) {
		return nil
	}

	var issues []Issue

	priceColumns := []struct {
		name  string
		value func(model.PriceRecord) float64
	}{
		{model.ColOpen, func(r model.PriceRecord) float64 { return r.Open }},
		{model.ColHigh, func(r model.PriceRecord) float64 { return r.High }},
		{model.ColLow, func(r model.PriceRecord) float64 { return r.Low }},
		{model.ColClose, func(r model.PriceRecord) float64 { return r.Close }},
	}

	for _, col := range priceColumns {
		var rows []int
		for i, r := range t.Rows {
			val := col.value(r)
			if !model.IsNull(val) && val <= 0 {
				rows = append(rows, i)
			}
		}
		if len(rows) > 0 {
			issues = append(issues, Issue{
				Type:         IssueNegativePrice,
				Severity:     SeverityCritical,
				Description:  fmt.Sprintf("%d non-positive prices in column %q", len(rows), col.name),
				Symbol:       symbol,
				AffectedRows: rows,
			})
		}
	}

	if t.HasColumn(model.ColVolume) {
		var negative, zero []int
		for i, r := range t.Rows {
			if model.IsNull(r.Volume) {
				continue
			}
			switch {
			case r.Volume < 0:
				negative = append(negative, i)
			case r.Volume == 0:
				zero = append(zero, i)
			}
		}
		if len(negative) > 0 {
			issues = append(issues, Issue{
				Type:         IssueZeroVolume,
				Severity:     SeverityCritical,
				Description:  fmt.Sprintf("%d negative volume values", len(negative)),
				Symbol:       symbol,
				AffectedRows: negative,
			})
		}
		if len(zero) > 0 {
			issues = append(issues, Issue{
				Type:         IssueZeroVolume,
				Severity:     SeverityWarning,
				Description:  fmt.Sprintf("%d zero-volume days (possible illiquidity)", len(zero)),
				Symbol:       symbol,
				AffectedRows: zero,
			})
		}
	}

	issues = append(issues, v.checkPriceRelations(t, symbol)...)

	return issues
}

func (v *Validator) checkPriceRelations(t model.Table, symbol string) []Issue {
	type relation struct {
		severity    Severity
		description string
		violated    func(model.PriceRecord) bool
	}

	complete := func(r model.PriceRecord) bool {
		return !model.IsNull(r.Open) && !model.IsNull(r.High) &&
			!model.IsNull(r.Low) && !model.IsNull(r.Close)
	}

	relations := []relation{
		// Low above high is physically impossible; the rest are
		// internally inconsistent data-source artifacts.
		{SeverityCritical, "low above high", func(r model.PriceRecord) bool { return r.Low > r.High+priceTolerance }},
		{SeverityWarning, "low above open", func(r model.PriceRecord) bool { return r.Low > r.Open+priceTolerance && r.Low <= r.High+priceTolerance }},
		{SeverityWarning, "low above close", func(r model.PriceRecord) bool { return r.Low > r.Close+priceTolerance && r.Low <= r.High+priceTolerance }},
		{SeverityWarning, "high below open", func(r model.PriceRecord) bool { return r.High+priceTolerance < r.Open }},
		{SeverityWarning, "high below close", func(r model.PriceRecord) bool { return r.High+priceTolerance < r.Close }},
	}

	var issues []Issue
	for _, rel := range relations {
		var rows []int
		for i, r := range t.Rows {
			if complete(r) && rel.violated(r) {
				rows = append(rows, i)
			}
		}
		if len(rows) > 0 {
			issues = append(issues, Issue{
				Type:         IssuePriceInconsistency,
				Severity:     rel.severity,
				Description:  fmt.Sprintf("%s on %d rows", rel.description, len(rows)),
				Symbol:       symbol,
				AffectedRows: rows,
			})
		}
	}

	var flat []int
	for i, r := range t.Rows {
		if !complete(r) {
			continue
		}
		if math.Abs(r.Open-r.High) <= priceTolerance &&
			math.Abs(r.High-r.Low) <= priceTolerance &&
			math.Abs(r.Low-r.Close) <= priceTolerance {
			flat = append(flat, i)
		}
	}
	if len(flat) > 0 {
		issues = append(issues, Issue{
			Type:         IssuePriceInconsistency,
			Severity:     SeverityWarning,
			Description:  fmt.Sprintf("%d flat days with identical OHLC values", len(flat)),
			Symbol:       symbol,
			AffectedRows: flat,
		})
	}

	return issues
}

// Stage 3: temporal sequence. No-ops without a datetime column or with
// fewer than two rows.
func (v *Validator) validateTemporalSequence(t model.Table, symbol string) []Issue {
	if !t.HasColumn(model.ColDatetime) || len(t.Rows) < 2 {
		return nil
	}

	var issues []Issue

	if dup := v.checkDuplicateDates(t, symbol); dup != nil {
		issues = append(issues, *dup)
	}

	var outOfOrder []int
	for i := 1; i < len(t.Rows); i++ {
		prev, cur := t.Rows[i-1], t.Rows[i]
		if prev.HasDatetime() && cur.HasDatetime() && cur.Datetime.Before(prev.Datetime) {
			outOfOrder = append(outOfOrder, i)
		}
	}
	if len(outOfOrder) > 0 {
		issues = append(issues, Issue{
			Type:         IssueDateOrder,
			Severity:     SeverityWarning,
			Description:  fmt.Sprintf("%d rows out of chronological order", len(outOfOrder)),
			Symbol:       symbol,
			AffectedRows: outOfOrder,
			SuggestedFix: "sort rows ascending by datetime",
		})
	}

	issues = append(issues, v.checkGaps(t, symbol)...)

	var weekendRows []int
	for i, r := range t.Rows {
		if !r.HasDatetime() {
			continue
		}
		if wd := r.Datetime.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekendRows = append(weekendRows, i)
		}
	}
	if len(weekendRows) > 0 {
		issues = append(issues, Issue{
			Type:         IssueDateGap,
			Severity:     SeverityWarning,
			Description:  fmt.Sprintf("%d records fall on calendar weekends", len(weekendRows)),
			Symbol:       symbol,
			AffectedRows: weekendRows,
		})
	}

	return issues
}

func (v *Validator) checkDuplicateDates(t model.Table, symbol string) *Issue {
	byDate := make(map[string][]int)
	for i, r := range t.Rows {
		if r.Date == "" {
			continue
		}
		byDate[r.Date] = append(byDate[r.Date], i)
	}

	duplicateDates := 0
	var rows []int
	for _, indices := range byDate {
		if len(indices) > 1 {
			duplicateDates++
			// Every row sharing the duplicated date is reported.
			rows = append(rows, indices...)
		}
	}
	if duplicateDates == 0 {
		return nil
	}

	sort.Ints(rows)
	return &Issue{
		Type:         IssueDateDuplicate,
		Severity:     SeverityCritical,
		Description:  fmt.Sprintf("%d dates appear more than once", duplicateDates),
		Symbol:       symbol,
		AffectedRows: rows,
		SuggestedFix: "deduplicate by date keeping the latest datetime",
	}
}

func (v *Validator) checkGaps(t model.Table, symbol string) []Issue {
	order := sortedOrder(t)

	var (
		consecutive, weekend, holiday int
		largeGaps                     []int
		maxGap                        int
		totalGaps                     int
	)

	for i := 1; i < len(order); i++ {
		prev, cur := t.Rows[order[i-1]], t.Rows[order[i]]
		if !prev.HasDatetime() || !cur.HasDatetime() {
			continue
		}
		days := daysBetween(prev.Datetime, cur.Datetime)
		if days <= 0 {
			continue
		}
		totalGaps++
		if days > maxGap {
			maxGap = days
		}
		switch {
		case days == 1:
			consecutive++
		case days <= 3:
			weekend++
		case days <= 7:
			holiday++
		default:
			largeGaps = append(largeGaps, order[i])
		}
	}

	var issues []Issue

	if len(largeGaps) > 0 {
		sort.Ints(largeGaps)
		issues = append(issues, Issue{
			Type:         IssueDateGap,
			Severity:     SeverityWarning,
			Description:  fmt.Sprintf("%d gaps longer than 7 days (max %d days)", len(largeGaps), maxGap),
			Symbol:       symbol,
			AffectedRows: largeGaps,
		})
	}

	if totalGaps > 0 && float64(consecutive)/float64(totalGaps) < consecutiveGapRatio {
		issues = append(issues, Issue{
			Type:        IssueDateGap,
			Severity:    SeverityInfo,
			Description: fmt.Sprintf("sparse series: only %d of %d gaps are single days", consecutive, totalGaps),
			Symbol:      symbol,
		})
	}

	// Audit-trail summary, emitted even for a clean series.
	issues = append(issues, Issue{
		Type:     IssueDateGap,
		Severity: SeverityInfo,
		Description: fmt.Sprintf("gap statistics: %d consecutive days, %d weekend gaps, %d holiday gaps",
			consecutive, weekend, holiday),
		Symbol: symbol,
	})

	return issues
}

// Stage 4: market anomalies. Real shocks are legitimate, so this stage
// only ever emits warnings.
func (v *Validator) validateMarketAnomalies(t model.Table, symbol string) []Issue {
	if !t.HasColumn(model.ColClose) || len(t.Rows) < 2 {
		return nil
	}

	var issues []Issue
	order := sortedOrder(t)

	var extremeRows []int
	maxVariation := 0.0
	for i := 1; i < len(order); i++ {
		prev, cur := t.Rows[order[i-1]].Close, t.Rows[order[i]].Close
		if model.IsNull(prev) || model.IsNull(cur) || prev <= 0 {
			continue
		}
		variation := math.Abs(cur-prev) / prev
		if variation > v.opts.MaxDailyVariation {
			extremeRows = append(extremeRows, order[i])
			if variation > maxVariation {
				maxVariation = variation
			}
		}
	}
	if len(extremeRows) > 0 {
		sort.Ints(extremeRows)
		issues = append(issues, Issue{
			Type:     IssueExtremeVariation,
			Severity: SeverityWarning,
			Description: fmt.Sprintf("%d day-over-day swings above %.0f%% (max %.1f%%)",
				len(extremeRows), v.opts.MaxDailyVariation*100, maxVariation*100),
			Symbol:       symbol,
			AffectedRows: extremeRows,
		})
	}

	if t.HasColumn(model.ColVolume) {
		sum, count := 0.0, 0
		for _, r := range t.Rows {
			if !model.IsNull(r.Volume) && r.Volume > 0 {
				sum += r.Volume
				count++
			}
		}
		if count > 0 {
			mean := sum / float64(count)
			var spikes []int
			for i, r := range t.Rows {
				if !model.IsNull(r.Volume) && r.Volume > mean*volumeSpikeMultiple {
					spikes = append(spikes, i)
				}
			}
			if len(spikes) > 0 {
				issues = append(issues, Issue{
					Type:         IssueVolumeAnomaly,
					Severity:     SeverityWarning,
					Description:  fmt.Sprintf("%d volume spikes above %.0fx the mean", len(spikes), volumeSpikeMultiple),
					Symbol:       symbol,
					AffectedRows: spikes,
				})
			}
		}
	}

	return issues
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// sortedOrder returns row indices in ascending datetime order, so that
// issues raised while walking the sorted sequence still reference
// positions in the caller's table.
func sortedOrder(t model.Table) []int {
	order := make([]int, len(t.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.Rows[order[a]].Datetime.Before(t.Rows[order[b]].Datetime)
	})
	return order
}
