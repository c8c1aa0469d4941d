package validation

import "daily-price-pipeline/internal/model"

// Result is the outcome of one validate call. Created once, never
// mutated; consumed by the storage writer and by reporting.
type Result struct {
	IsValid       bool
	Symbol        string
	Issues        []Issue
	CorrectedData *model.Table
}

// CriticalIssues returns the issues that reject the dataset.
func (r Result) CriticalIssues() []Issue {
	return r.filter(SeverityCritical)
}

// WarningIssues returns the accepted-but-logged issues.
func (r Result) WarningIssues() []Issue {
	return r.filter(SeverityWarning)
}

// InfoIssues returns the informational issues.
func (r Result) InfoIssues() []Issue {
	return r.filter(SeverityInfo)
}

func (r Result) filter(sev Severity) []Issue {
	out := make([]Issue, 0, len(r.Issues))
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Summary is a compact view of a result for logs and metadata.
type Summary struct {
	IsValid        bool   `json:"is_valid"`
	Symbol         string `json:"symbol"`
	TotalIssues    int    `json:"total_issues"`
	CriticalCount  int    `json:"critical_count"`
	WarningCount   int    `json:"warning_count"`
	InfoCount      int    `json:"info_count"`
	HasCorrections bool   `json:"has_corrections"`
}

// Summarize folds the result into counts per severity.
func (r Result) Summarize() Summary {
	return Summary{
		IsValid:        r.IsValid,
		Symbol:         r.Symbol,
		TotalIssues:    len(r.Issues),
		CriticalCount:  len(r.CriticalIssues()),
		WarningCount:   len(r.WarningIssues()),
		InfoCount:      len(r.InfoIssues()),
		HasCorrections: r.CorrectedData != nil,
	}
}
