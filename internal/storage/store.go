package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"daily-price-pipeline/internal/model"
	"daily-price-pipeline/internal/validation"
)

// ErrCriticalIssues is returned when a save is refused because the
// validation result carries critical issues.
var ErrCriticalIssues = errors.New("storage: dataset has critical issues")

const defaultMaxBackups = 4

// Options configures the partitioned price store.
type Options struct {
	BaseDir     string
	Compression string
	MaxBackups  int
	WriteCSV    bool
}

// Store persists validated price history as year/month parquet partitions
// with rotating backups.
type Store struct {
	layout      Layout
	compression string
	maxBackups  int
	writeCSV    bool
	logger      zerolog.Logger
	now         func() time.Time
}

// New builds a Store rooted at opts.BaseDir.
func New(opts Options, logger zerolog.Logger) (*Store, error) {
	if opts.BaseDir == "" {
		return nil, fmt.Errorf("storage: base dir is required")
	}
	if _, err := codecFor(opts.Compression); err != nil {
		return nil, err
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	return &Store{
		layout:      Layout{BaseDir: opts.BaseDir},
		compression: opts.Compression,
		maxBackups:  maxBackups,
		writeCSV:    opts.WriteCSV,
		logger:      logger.With().Str("component", "storage").Logger(),
		now:         time.Now,
	}, nil
}

// SaveSummary reports what one save did.
type SaveSummary struct {
	Partition         Partition
	OriginalRows      int
	CorrectedRows     int
	DuplicatesRemoved int
	AddedByCorrection int
	BackedUp          bool
}

// Save merges the dataset into its partition. The original table is
// persisted as fetched; the corrected variant comes from the validation
// result when corrections were applied, otherwise it mirrors the original.
// Saves are refused while critical issues are present.
func (s *Store) Save(symbol string, original model.Table, result validation.Result) (SaveSummary, error) {
	if symbol == "" {
		return SaveSummary{}, fmt.Errorf("storage: symbol is required")
	}
	if original.Empty() {
		return SaveSummary{}, fmt.Errorf("storage: no rows to save for %s", symbol)
	}
	if len(result.CriticalIssues()) > 0 {
		return SaveSummary{}, fmt.Errorf("%w: %s has %d critical issues",
			ErrCriticalIssues, symbol, len(result.CriticalIssues()))
	}

	corrected := original
	if result.CorrectedData != nil {
		corrected = *result.CorrectedData
	}

	sortedRows := corrected.SortedByDatetime()
	last := sortedRows[len(sortedRows)-1].Datetime
	part := Partition{Year: last.Year(), Month: last.Month()}

	summary := SaveSummary{Partition: part}

	backedUp, err := s.backupExisting(symbol, part)
	if err != nil {
		return SaveSummary{}, err
	}
	summary.BackedUp = backedUp

	mergedOriginal, _, err := s.mergeWithExisting(symbol, part, KindOriginal, original)
	if err != nil {
		return SaveSummary{}, err
	}
	mergedCorrected, removed, err := s.mergeWithExisting(symbol, part, KindCorrected, corrected)
	if err != nil {
		return SaveSummary{}, err
	}

	summary.OriginalRows = len(mergedOriginal.Rows)
	summary.CorrectedRows = len(mergedCorrected.Rows)
	summary.DuplicatesRemoved = removed
	if extra := len(corrected.Rows) - len(original.Rows); extra > 0 {
		summary.AddedByCorrection = extra
	}

	codec, err := codecFor(s.compression)
	if err != nil {
		return SaveSummary{}, err
	}
	if err := writeParquet(s.layout.ParquetPath(symbol, part.Year, part.Month, KindOriginal), mergedOriginal, codec); err != nil {
		return SaveSummary{}, err
	}
	if err := writeParquet(s.layout.ParquetPath(symbol, part.Year, part.Month, KindCorrected), mergedCorrected, codec); err != nil {
		return SaveSummary{}, err
	}
	if s.writeCSV {
		if err := writeCSV(s.layout.CSVPath(symbol, part.Year, part.Month, KindOriginal), mergedOriginal); err != nil {
			return SaveSummary{}, err
		}
		if err := writeCSV(s.layout.CSVPath(symbol, part.Year, part.Month, KindCorrected), mergedCorrected); err != nil {
			return SaveSummary{}, err
		}
	}

	if err := s.writePartitionMetadata(symbol, part, summary, mergedCorrected, result); err != nil {
		return SaveSummary{}, err
	}
	if err := s.CleanupBackups(symbol); err != nil {
		return SaveSummary{}, err
	}

	s.logger.Info().
		Str("symbol", symbol).
		Int("year", part.Year).
		Int("month", int(part.Month)).
		Int("original_rows", summary.OriginalRows).
		Int("corrected_rows", summary.CorrectedRows).
		Int("duplicates_removed", summary.DuplicatesRemoved).
		Msg("partition saved")
	return summary, nil
}

// Read loads one partition variant for a symbol. With no explicit
// partition callers use ReadLatest.
func (s *Store) Read(symbol string, part Partition, kind DataKind) (model.Table, error) {
	return readParquet(s.layout.ParquetPath(symbol, part.Year, part.Month, kind))
}

// ReadLatest loads the newest partition for a symbol. The boolean is
// false when the symbol has no stored data.
func (s *Store) ReadLatest(symbol string, kind DataKind) (model.Table, bool, error) {
	part, ok, err := s.layout.LatestPartition(symbol)
	if err != nil || !ok {
		return model.Table{}, false, err
	}
	table, err := s.Read(symbol, part, kind)
	if err != nil {
		return model.Table{}, false, err
	}
	return table, true, nil
}

// Metadata loads the metadata for one partition.
func (s *Store) Metadata(symbol string, part Partition) (Metadata, error) {
	return readMetadata(s.layout.MetadataPath(symbol, part.Year, part.Month))
}

// LatestMetadata loads the metadata of the newest partition.
func (s *Store) LatestMetadata(symbol string) (Metadata, bool, error) {
	part, ok, err := s.layout.LatestPartition(symbol)
	if err != nil || !ok {
		return Metadata{}, false, err
	}
	meta, err := s.Metadata(symbol, part)
	if err != nil {
		return Metadata{}, false, err
	}
	return meta, true, nil
}

// ListSymbols returns every stored symbol.
func (s *Store) ListSymbols() ([]string, error) {
	return s.layout.ListSymbols()
}

// ListPartitions returns the partitions stored for a symbol.
func (s *Store) ListPartitions(symbol string) ([]Partition, error) {
	return s.layout.ListPartitions(symbol)
}

// Backups lists backup file names for a symbol, oldest first.
func (s *Store) Backups(symbol string) ([]string, error) {
	return s.layout.Backups(symbol)
}

// CleanupBackups enforces the retention limit, deleting oldest first.
// Original and corrected backups rotate independently.
func (s *Store) CleanupBackups(symbol string) error {
	names, err := s.layout.Backups(symbol)
	if err != nil {
		return err
	}

	byKind := map[DataKind][]string{}
	for _, name := range names {
		for _, kind := range []DataKind{KindOriginal, KindCorrected} {
			if strings.HasPrefix(name, string(kind)+"_") {
				byKind[kind] = append(byKind[kind], name)
			}
		}
	}

	for kind, kindNames := range byKind {
		if len(kindNames) <= s.maxBackups {
			continue
		}
		sort.Strings(kindNames)
		for _, name := range kindNames[:len(kindNames)-s.maxBackups] {
			path := filepath.Join(s.layout.BackupDir(symbol), name)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove backup %s: %w", path, err)
			}
			s.logger.Debug().Str("symbol", symbol).Str("backup", name).
				Str("kind", string(kind)).Msg("backup rotated out")
		}
	}
	return nil
}

func (s *Store) backupExisting(symbol string, part Partition) (bool, error) {
	backedUp := false
	now := s.now()
	for _, kind := range []DataKind{KindOriginal, KindCorrected} {
		src := s.layout.ParquetPath(symbol, part.Year, part.Month, kind)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return false, fmt.Errorf("stat %s: %w", src, err)
		}
		dst := s.layout.BackupPath(symbol, kind, now)
		if err := copyFile(src, dst); err != nil {
			return false, err
		}
		backedUp = true
	}
	return backedUp, nil
}

// mergeWithExisting combines new rows with the partition already on disk
// and deduplicates by date, keeping the row with the latest datetime.
func (s *Store) mergeWithExisting(symbol string, part Partition, kind DataKind, incoming model.Table) (model.Table, int, error) {
	merged := incoming
	path := s.layout.ParquetPath(symbol, part.Year, part.Month, kind)
	if _, err := os.Stat(path); err == nil {
		existing, readErr := readParquet(path)
		if readErr != nil {
			return model.Table{}, 0, readErr
		}
		rows := append(existing.Clone().Rows, incoming.Rows...)
		merged = model.NewTable(rows)
		merged.Columns = incoming.Columns
	} else if !os.IsNotExist(err) {
		return model.Table{}, 0, fmt.Errorf("stat %s: %w", path, err)
	}

	deduped, removed := dedupeByDate(merged)
	return deduped, removed, nil
}

// dedupeByDate keeps one row per calendar date, preferring the row with
// the greatest datetime. Ties keep the later occurrence.
func dedupeByDate(t model.Table) (model.Table, int) {
	sorted := t.SortedByDatetime()
	byDate := make(map[string]model.PriceRecord, len(sorted))
	order := make([]string, 0, len(sorted))
	for _, r := range sorted {
		if _, seen := byDate[r.Date]; !seen {
			order = append(order, r.Date)
		}
		byDate[r.Date] = r
	}

	rows := make([]model.PriceRecord, 0, len(order))
	for _, date := range order {
		rows = append(rows, byDate[date])
	}
	out := model.NewTable(rows)
	out.Columns = t.Columns
	return out, len(t.Rows) - len(rows)
}

func (s *Store) writePartitionMetadata(symbol string, part Partition, summary SaveSummary, corrected model.Table, result validation.Result) error {
	sizes := map[string]int64{}
	for _, kind := range []DataKind{KindOriginal, KindCorrected} {
		path := s.layout.ParquetPath(symbol, part.Year, part.Month, kind)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		sizes[filepath.Base(path)] = info.Size()
	}

	start, end := corrected.DateRange()
	dateRange := DateRange{}
	if !start.IsZero() {
		dateRange.Start = start.Format(model.DateLayout)
		dateRange.End = end.Format(model.DateLayout)
	}
	meta := Metadata{
		Symbol:      symbol,
		Partition:   PartitionRef{Year: part.Year, Month: int(part.Month)},
		LastUpdated: s.now().UTC(),
		Compression: s.compression,
		Records: RecordCounts{
			Original:          summary.OriginalRows,
			Corrected:         summary.CorrectedRows,
			DuplicatesRemoved: summary.DuplicatesRemoved,
			AddedByCorrection: summary.AddedByCorrection,
		},
		FileSizes:  sizes,
		DateRange:  dateRange,
		Validation: validationCounts(result),
	}
	return writeMetadata(s.layout.MetadataPath(symbol, part.Year, part.Month), meta)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Close()
}
