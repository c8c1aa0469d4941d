package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"daily-price-pipeline/internal/validation"
)

// Metadata describes one persisted partition. Written next to the data
// files as metadata.json.
type Metadata struct {
	Symbol      string            `json:"symbol"`
	Partition   PartitionRef      `json:"partition"`
	LastUpdated time.Time         `json:"last_updated"`
	Compression string            `json:"compression"`
	Records     RecordCounts      `json:"records"`
	FileSizes   map[string]int64  `json:"file_sizes_bytes"`
	DateRange   DateRange         `json:"date_range"`
	Validation  ValidationCounts  `json:"validation"`
}

// PartitionRef is the year/month the partition is keyed on.
type PartitionRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// RecordCounts tracks row accounting across the save.
type RecordCounts struct {
	Original          int `json:"original"`
	Corrected         int `json:"corrected"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	AddedByCorrection int `json:"added_by_correction"`
}

// DateRange is the inclusive span of trading days in the partition.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ValidationCounts is the per-severity issue tally persisted with the data.
type ValidationCounts struct {
	IsValid        bool `json:"is_valid"`
	TotalIssues    int  `json:"total_issues"`
	CriticalIssues int  `json:"critical_issues"`
	Warnings       int  `json:"warnings"`
	Info           int  `json:"info"`
}

func validationCounts(result validation.Result) ValidationCounts {
	summary := result.Summarize()
	return ValidationCounts{
		IsValid:        summary.IsValid,
		TotalIssues:    summary.TotalIssues,
		CriticalIssues: summary.CriticalCount,
		Warnings:       summary.WarningCount,
		Info:           summary.InfoCount,
	}
}

func writeMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

func readMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata %s: %w", path, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	return meta, nil
}
