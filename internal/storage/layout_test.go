package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSafeSymbolRoundTrip(t *testing.T) {
	cases := map[string]string{
		"ASML.AS": "ASML_AS",
		"AIR.PA":  "AIR_PA",
		"HSBA.L":  "HSBA_L",
		"AAPL":    "AAPL",
	}
	for symbol, dir := range cases {
		if got := SafeSymbol(symbol); got != dir {
			t.Errorf("SafeSymbol(%q) = %q, want %q", symbol, got, dir)
		}
		if got := RestoreSymbol(dir); got != symbol {
			t.Errorf("RestoreSymbol(%q) = %q, want %q", dir, got, symbol)
		}
	}
}

func TestRestoreSymbolUnknownSuffix(t *testing.T) {
	if got := RestoreSymbol("BRK_B"); got != "BRK_B" {
		t.Fatalf("unknown suffix must stay untouched, got %q", got)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{BaseDir: "/data/prices"}

	got := l.ParquetPath("ASML.AS", 2025, time.January, KindCorrected)
	want := filepath.Join("/data/prices", "ASML_AS", "year=2025", "month=01", "corrected.parquet")
	if got != want {
		t.Fatalf("ParquetPath = %s, want %s", got, want)
	}

	at := time.Date(2025, 1, 7, 18, 30, 5, 0, time.UTC)
	gotBackup := l.BackupPath("ASML.AS", KindOriginal, at)
	wantBackup := filepath.Join("/data/prices", "ASML_AS", "backups", "original_2025-01-07_183005.parquet")
	if gotBackup != wantBackup {
		t.Fatalf("BackupPath = %s, want %s", gotBackup, wantBackup)
	}
}

func TestListPartitionsSorted(t *testing.T) {
	base := t.TempDir()
	l := Layout{BaseDir: base}
	for _, dir := range []string{
		"ASML_AS/year=2025/month=02",
		"ASML_AS/year=2024/month=12",
		"ASML_AS/year=2025/month=01",
		"ASML_AS/backups",
	} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	partitions, err := l.ListPartitions("ASML.AS")
	if err != nil {
		t.Fatal(err)
	}
	want := []Partition{
		{Year: 2024, Month: time.December},
		{Year: 2025, Month: time.January},
		{Year: 2025, Month: time.February},
	}
	if len(partitions) != len(want) {
		t.Fatalf("got %v", partitions)
	}
	for i := range want {
		if partitions[i] != want[i] {
			t.Fatalf("partition %d = %v, want %v", i, partitions[i], want[i])
		}
	}

	latest, ok, err := l.LatestPartition("ASML.AS")
	if err != nil || !ok {
		t.Fatalf("LatestPartition: ok=%v err=%v", ok, err)
	}
	if latest != want[2] {
		t.Fatalf("latest = %v", latest)
	}
}

func TestListSymbolsRestores(t *testing.T) {
	base := t.TempDir()
	l := Layout{BaseDir: base}
	for _, dir := range []string{"ASML_AS", "AAPL", ".cache"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	symbols, err := l.ListSymbols()
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "ASML.AS" {
		t.Fatalf("got %v", symbols)
	}
}

func TestListSymbolsMissingBaseDir(t *testing.T) {
	l := Layout{BaseDir: filepath.Join(t.TempDir(), "nope")}
	symbols, err := l.ListSymbols()
	if err != nil {
		t.Fatal(err)
	}
	if symbols != nil {
		t.Fatalf("expected nil, got %v", symbols)
	}
}
