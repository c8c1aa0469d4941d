package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"daily-price-pipeline/internal/model"
	"daily-price-pipeline/internal/pipeline"
	"daily-price-pipeline/internal/report"
	"daily-price-pipeline/internal/scheduler"
	"daily-price-pipeline/internal/validation"
)

// Collect runs the pipeline once for the configured symbols and returns
// the run statistics. The caller maps them to a process exit code.
func (a *App) Collect(ctx context.Context, opts CollectOptions) (pipeline.Stats, error) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	symbols, err := a.resolveSymbols(opts.Symbols)
	if err != nil {
		return pipeline.Stats{}, err
	}

	store, err := a.openStore()
	if err != nil {
		return pipeline.Stats{}, err
	}

	p := pipeline.New(pipeline.Options{
		Period:   a.Config.Pipeline.Period,
		Interval: a.Config.Pipeline.Interval,
		DryRun:   opts.DryRun,
	}, a.newChain(), a.newValidator(), store, a.Logger)

	var entries []report.QualityEntry
	reportOn := a.Config.Report.Enabled && !opts.SkipReport && !opts.DryRun
	if reportOn {
		p.Observe(func(symbol string, t model.Table, result validation.Result) {
			entries = append(entries, a.qualityEntry(symbol, t, result))
		})
	}

	stats, err := p.Run(ctx, symbols)
	if err != nil {
		return stats, err
	}

	if reportOn && len(entries) > 0 {
		if reportErr := a.writeRunReports(entries); reportErr != nil {
			a.Logger.Error().Err(reportErr).Msg("report generation failed")
		}
	}
	return stats, nil
}

// Schedule runs Collect on the configured cron schedule until cancelled.
func (a *App) Schedule(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := scheduler.New(scheduler.Options{
		Spec:     a.Config.Scheduler.Cron,
		Location: a.Config.Location(),
	}, a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("cron", a.Config.Scheduler.Cron).Msg("starting scheduled collection")
	err = sched.Run(ctx, func(runCtx context.Context, firedAt time.Time) error {
		stats, runErr := a.Collect(runCtx, CollectOptions{})
		if runErr != nil {
			return runErr
		}
		if stats.Failed > 0 {
			return fmt.Errorf("%d of %d symbols failed", stats.Failed, stats.TotalSymbols)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("scheduler stopped")
	return nil
}

func (a *App) qualityEntry(symbol string, t model.Table, result validation.Result) report.QualityEntry {
	table := t
	if result.CorrectedData != nil {
		table = *result.CorrectedData
	}
	entry := report.QualityEntry{
		Symbol:  symbol,
		Rows:    len(table.Rows),
		Summary: result.Summarize(),
		Issues:  result.Issues,
	}
	if start, end := table.DateRange(); !start.IsZero() {
		entry.Start = start.Format(model.DateLayout)
		entry.End = end.Format(model.DateLayout)
	}
	return entry
}

func (a *App) writeRunReports(entries []report.QualityEntry) error {
	reporter, err := a.newReporter()
	if err != nil {
		return err
	}
	if _, err := reporter.QualityReport(entries); err != nil {
		return err
	}
	return nil
}
