package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
	"daily-price-pipeline/internal/storage"
	"daily-price-pipeline/internal/validation"
)

// HistoricalSource yields price history for one symbol. An empty table
// with a nil error means no provider had data.
type HistoricalSource interface {
	GetHistoricalData(ctx context.Context, symbol, period, interval string) (model.Table, error)
}

// Validator checks a fetched table and optionally corrects it.
type Validator interface {
	Validate(t model.Table, symbol string) (validation.Result, error)
}

// Store persists a validated dataset.
type Store interface {
	Save(symbol string, original model.Table, result validation.Result) (storage.SaveSummary, error)
}

// Options configures a pipeline run. DryRun fetches and validates but
// never writes to the store.
type Options struct {
	Period   string
	Interval string
	DryRun   bool
}

// Pipeline fetches, validates, and persists daily prices for a list of
// symbols, one at a time.
type Pipeline struct {
	source    HistoricalSource
	validator Validator
	store     Store
	logger    zerolog.Logger

	period   string
	interval string
	dryRun   bool
	observer func(symbol string, t model.Table, result validation.Result)
}

// New wires the pipeline stages together.
func New(opts Options, source HistoricalSource, validator Validator, store Store, logger zerolog.Logger) *Pipeline {
	period := opts.Period
	if period == "" {
		period = "max"
	}
	interval := opts.Interval
	if interval == "" {
		interval = "1d"
	}
	return &Pipeline{
		source:    source,
		validator: validator,
		store:     store,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		period:    period,
		interval:  interval,
		dryRun:    opts.DryRun,
	}
}

// Observe registers a callback invoked after each symbol's validation,
// whether or not the symbol goes on to be saved.
func (p *Pipeline) Observe(fn func(symbol string, t model.Table, result validation.Result)) {
	p.observer = fn
}

// Run processes every symbol sequentially. A symbol failure is recorded
// and the run continues; Run only returns an error when it cannot start.
func (p *Pipeline) Run(ctx context.Context, symbols []string) (Stats, error) {
	if len(symbols) == 0 {
		return Stats{}, fmt.Errorf("pipeline: no symbols to process")
	}

	stats := newStats(len(symbols))
	p.logger.Info().Int("symbols", len(symbols)).
		Str("period", p.period).Str("interval", p.interval).
		Bool("dry_run", p.dryRun).
		Msg("pipeline run started")

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			stats.finish()
			return stats, err
		}
		p.processSymbol(ctx, symbol, &stats)
	}

	stats.finish()
	p.logSummary(stats)
	return stats, nil
}

func (p *Pipeline) processSymbol(ctx context.Context, symbol string, stats *Stats) {
	logger := p.logger.With().Str("symbol", symbol).Logger()

	table, err := p.source.GetHistoricalData(ctx, symbol, p.period, p.interval)
	if err != nil {
		logger.Error().Err(err).Msg("fetch failed")
		stats.recordFailure(symbol, fmt.Sprintf("fetch: %v", err))
		return
	}
	if table.Empty() {
		logger.Warn().Msg("no provider returned data, skipping")
		stats.Skipped++
		return
	}

	result, err := p.validator.Validate(table, symbol)
	if err != nil {
		logger.Error().Err(err).Msg("validation failed")
		stats.recordFailure(symbol, fmt.Sprintf("validate: %v", err))
		return
	}

	if p.observer != nil {
		p.observer(symbol, table, result)
	}

	summary := result.Summarize()
	logger.Info().
		Bool("is_valid", summary.IsValid).
		Int("critical", summary.CriticalCount).
		Int("warnings", summary.WarningCount).
		Int("info", summary.InfoCount).
		Msg("validation finished")

	if !result.IsValid {
		for _, issue := range result.CriticalIssues() {
			logger.Error().Fields(issue.Fields()).Msg("critical issue")
		}
		stats.recordFailure(symbol, fmt.Sprintf("validate: %d critical issues", summary.CriticalCount))
		return
	}

	if p.dryRun {
		rows := len(table.Rows)
		if result.CorrectedData != nil {
			rows = len(result.CorrectedData.Rows)
		}
		stats.Successful++
		stats.TotalRecords += rows
		logger.Info().Int("rows", rows).Msg("dry run, validated without saving")
		return
	}

	saved, err := p.store.Save(symbol, table, result)
	if err != nil {
		logger.Error().Err(err).Msg("save failed")
		stats.recordFailure(symbol, fmt.Sprintf("save: %v", err))
		return
	}

	stats.Successful++
	stats.TotalRecords += saved.CorrectedRows
	stats.Saves = append(stats.Saves, SymbolSave{Symbol: symbol, Summary: saved})
	logger.Info().
		Int("rows", saved.CorrectedRows).
		Int("year", saved.Partition.Year).
		Int("month", int(saved.Partition.Month)).
		Msg("symbol processed")
}

func (p *Pipeline) logSummary(stats Stats) {
	event := p.logger.Info().
		Int("total", stats.TotalSymbols).
		Int("successful", stats.Successful).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Int("records", stats.TotalRecords).
		Dur("duration", stats.Duration)

	if len(stats.Errors) > 0 {
		shown := stats.Errors
		if len(shown) > maxErrorsShown {
			shown = shown[:maxErrorsShown]
		}
		messages := make([]string, 0, len(shown))
		for _, e := range shown {
			messages = append(messages, fmt.Sprintf("%s: %s", e.Symbol, e.Message))
		}
		event = event.Strs("errors", messages)
		if extra := len(stats.Errors) - len(shown); extra > 0 {
			event = event.Int("errors_not_shown", extra)
		}
	}
	event.Msg("pipeline run finished")
}
