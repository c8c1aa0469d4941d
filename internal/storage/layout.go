package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DataKind selects which variant of a partition to address.
type DataKind string

const (
	KindOriginal  DataKind = "original"
	KindCorrected DataKind = "corrected"
)

const (
	metadataFileName = "metadata.json"
	backupDirName    = "backups"
	backupTimeLayout = "2006-01-02_150405"
)

// europeanSuffixes are exchange suffixes that appear after the dot in
// Euronext/LSE/Xetra style tickers. Used to reverse directory-safe names.
var europeanSuffixes = []string{"AS", "PA", "L", "MI", "MC", "SW", "DE"}

// Layout resolves filesystem paths for the partitioned price store.
type Layout struct {
	BaseDir string
}

// SafeSymbol converts a ticker into a directory-safe name.
func SafeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "_")
}

// RestoreSymbol reverses SafeSymbol for known exchange suffixes. Names
// without a recognised suffix are returned with underscores intact.
func RestoreSymbol(name string) string {
	idx := strings.LastIndex(name, "_")
	if idx <= 0 || idx == len(name)-1 {
		return name
	}
	suffix := name[idx+1:]
	for _, s := range europeanSuffixes {
		if suffix == s {
			return name[:idx] + "." + suffix
		}
	}
	return name
}

// SymbolDir returns the root directory for one symbol.
func (l Layout) SymbolDir(symbol string) string {
	return filepath.Join(l.BaseDir, SafeSymbol(symbol))
}

// PartitionDir returns the year/month partition directory for a symbol.
func (l Layout) PartitionDir(symbol string, year int, month time.Month) string {
	return filepath.Join(l.SymbolDir(symbol),
		fmt.Sprintf("year=%04d", year),
		fmt.Sprintf("month=%02d", int(month)))
}

// ParquetPath returns the parquet file path for a partition variant.
func (l Layout) ParquetPath(symbol string, year int, month time.Month, kind DataKind) string {
	return filepath.Join(l.PartitionDir(symbol, year, month), string(kind)+".parquet")
}

// CSVPath returns the csv file path for a partition variant.
func (l Layout) CSVPath(symbol string, year int, month time.Month, kind DataKind) string {
	return filepath.Join(l.PartitionDir(symbol, year, month), string(kind)+".csv")
}

// MetadataPath returns the metadata.json path for a partition.
func (l Layout) MetadataPath(symbol string, year int, month time.Month) string {
	return filepath.Join(l.PartitionDir(symbol, year, month), metadataFileName)
}

// BackupDir returns the backup directory for a symbol.
func (l Layout) BackupDir(symbol string) string {
	return filepath.Join(l.SymbolDir(symbol), backupDirName)
}

// BackupPath returns a timestamped backup file path for a partition variant.
func (l Layout) BackupPath(symbol string, kind DataKind, at time.Time) string {
	name := fmt.Sprintf("%s_%s.parquet", kind, at.Format(backupTimeLayout))
	return filepath.Join(l.BackupDir(symbol), name)
}

// Partition identifies one year/month slice of a symbol's history.
type Partition struct {
	Year  int
	Month time.Month
}

// ListSymbols returns every symbol with at least one partition, restored
// to ticker form and sorted.
func (l Layout) ListSymbols() ([]string, error) {
	entries, err := os.ReadDir(l.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	symbols := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		symbols = append(symbols, RestoreSymbol(entry.Name()))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ListPartitions returns the partitions present for a symbol, oldest first.
func (l Layout) ListPartitions(symbol string) ([]Partition, error) {
	dir := l.SymbolDir(symbol)
	years, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list partitions for %s: %w", symbol, err)
	}

	var partitions []Partition
	for _, yearEntry := range years {
		year, ok := partitionComponent(yearEntry, "year=")
		if !ok {
			continue
		}
		months, err := os.ReadDir(filepath.Join(dir, yearEntry.Name()))
		if err != nil {
			return nil, fmt.Errorf("list months for %s: %w", symbol, err)
		}
		for _, monthEntry := range months {
			month, ok := partitionComponent(monthEntry, "month=")
			if !ok || month < 1 || month > 12 {
				continue
			}
			partitions = append(partitions, Partition{Year: year, Month: time.Month(month)})
		}
	}

	sort.Slice(partitions, func(i, j int) bool {
		if partitions[i].Year != partitions[j].Year {
			return partitions[i].Year < partitions[j].Year
		}
		return partitions[i].Month < partitions[j].Month
	})
	return partitions, nil
}

func partitionComponent(entry os.DirEntry, prefix string) (int, bool) {
	if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), prefix))
	if err != nil {
		return 0, false
	}
	return value, true
}

// LatestPartition returns the newest partition for a symbol, or ok=false
// when the symbol has no data.
func (l Layout) LatestPartition(symbol string) (Partition, bool, error) {
	partitions, err := l.ListPartitions(symbol)
	if err != nil || len(partitions) == 0 {
		return Partition{}, false, err
	}
	return partitions[len(partitions)-1], true, nil
}

// Backups lists backup files for a symbol, oldest first. The timestamped
// names sort chronologically.
func (l Layout) Backups(symbol string) ([]string, error) {
	entries, err := os.ReadDir(l.BackupDir(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list backups for %s: %w", symbol, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".parquet") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
