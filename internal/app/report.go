package app

import (
	"fmt"

	"daily-price-pipeline/internal/storage"
)

// Report renders price charts for stored symbols from the corrected
// partitions on disk.
func (a *App) Report(opts ReportOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	reporter, err := a.newReporter()
	if err != nil {
		return err
	}

	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols, err = store.ListSymbols()
		if err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no stored symbols to report on")
	}

	rendered := 0
	for _, symbol := range symbols {
		table, ok, err := store.ReadLatest(symbol, storage.KindCorrected)
		if err != nil {
			a.Logger.Error().Err(err).Str("symbol", symbol).Msg("read failed")
			continue
		}
		if !ok {
			a.Logger.Warn().Str("symbol", symbol).Msg("no stored data")
			continue
		}
		path, err := reporter.PriceChart(symbol, table)
		if err != nil {
			a.Logger.Error().Err(err).Str("symbol", symbol).Msg("chart failed")
			continue
		}
		a.Logger.Info().Str("symbol", symbol).Str("path", path).Msg("chart written")
		rendered++
	}

	if rendered == 0 {
		return fmt.Errorf("no charts rendered")
	}
	return nil
}
