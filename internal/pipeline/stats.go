package pipeline

import (
	"time"

	"daily-price-pipeline/internal/storage"
)

const maxErrorsShown = 5

// SymbolError records one per-symbol failure.
type SymbolError struct {
	Symbol    string    `json:"symbol"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SymbolSave pairs a symbol with what its save did.
type SymbolSave struct {
	Symbol  string
	Summary storage.SaveSummary
}

// Stats accumulates the outcome of one pipeline run.
type Stats struct {
	TotalSymbols int
	Successful   int
	Failed       int
	Skipped      int
	TotalRecords int
	Errors       []SymbolError
	Saves        []SymbolSave
	StartedAt    time.Time
	Duration     time.Duration
}

func newStats(total int) Stats {
	return Stats{TotalSymbols: total, StartedAt: time.Now()}
}

func (s *Stats) recordFailure(symbol, message string) {
	s.Failed++
	s.Errors = append(s.Errors, SymbolError{
		Symbol:    symbol,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Stats) finish() {
	s.Duration = time.Since(s.StartedAt)
}

// ExitCode maps the run outcome to a process exit code: 1 when any
// symbol failed, 2 when nothing succeeded, 0 otherwise.
func (s Stats) ExitCode() int {
	switch {
	case s.Failed > 0:
		return 1
	case s.Successful == 0:
		return 2
	default:
		return 0
	}
}
