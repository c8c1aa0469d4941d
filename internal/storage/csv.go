package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"daily-price-pipeline/internal/model"
)

var csvHeader = []string{
	model.ColDatetime, model.ColDate, model.ColSymbol,
	model.ColOpen, model.ColHigh, model.ColLow, model.ColClose,
	model.ColAdjClose, model.ColVolume, model.ColCurrency, model.ColExchange,
}

// writeCSV mirrors a partition as csv for spreadsheet inspection.
func writeCSV(path string, t model.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create partition dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range t.Rows {
		record := []string{
			r.Datetime.UTC().Format("2006-01-02T15:04:05Z"),
			r.Date,
			r.Symbol,
			formatPrice(r.Open),
			formatPrice(r.High),
			formatPrice(r.Low),
			formatPrice(r.Close),
			formatPrice(r.AdjClose),
			formatVolume(r.Volume),
			r.Currency,
			r.Exchange,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return nil
}

func formatPrice(v float64) string {
	if model.IsNull(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVolume(v float64) string {
	if model.IsNull(v) {
		return ""
	}
	return strconv.FormatInt(int64(math.Round(v)), 10)
}
