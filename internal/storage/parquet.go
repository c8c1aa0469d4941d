package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"daily-price-pipeline/internal/model"
)

// priceRow is the on-disk parquet schema for one trading day.
type priceRow struct {
	Datetime int64   `parquet:"datetime,timestamp(millisecond)"`
	Date     string  `parquet:"date"`
	Symbol   string  `parquet:"symbol"`
	Open     float64 `parquet:"open"`
	High     float64 `parquet:"high"`
	Low      float64 `parquet:"low"`
	Close    float64 `parquet:"close"`
	AdjClose float64 `parquet:"adj_close"`
	Volume   int64   `parquet:"volume"`
	Currency string  `parquet:"currency"`
	Exchange string  `parquet:"exchange"`
}

func codecFor(name string) (compress.Codec, error) {
	switch name {
	case "", "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "none", "uncompressed":
		return &parquet.Uncompressed, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", name)
	}
}

func toRows(t model.Table) []priceRow {
	rows := make([]priceRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		volume := int64(0)
		if !model.IsNull(r.Volume) {
			volume = int64(math.Round(r.Volume))
		}
		rows = append(rows, priceRow{
			Datetime: r.Datetime.UnixMilli(),
			Date:     r.Date,
			Symbol:   r.Symbol,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			AdjClose: r.AdjClose,
			Volume:   volume,
			Currency: r.Currency,
			Exchange: r.Exchange,
		})
	}
	return rows
}

func fromRows(rows []priceRow) model.Table {
	records := make([]model.PriceRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.PriceRecord{
			Datetime: time.UnixMilli(r.Datetime).UTC(),
			Date:     r.Date,
			Symbol:   r.Symbol,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			AdjClose: r.AdjClose,
			Volume:   float64(r.Volume),
			Currency: r.Currency,
			Exchange: r.Exchange,
		})
	}
	table := model.NewTable(records)
	table.Rows = table.SortedByDatetime()
	return table
}

func writeParquet(path string, t model.Table, codec compress.Codec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create partition dir: %w", err)
	}
	if err := parquet.WriteFile(path, toRows(t), parquet.Compression(codec)); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

func readParquet(path string) (model.Table, error) {
	rows, err := parquet.ReadFile[priceRow](path)
	if err != nil {
		return model.Table{}, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return fromRows(rows), nil
}
