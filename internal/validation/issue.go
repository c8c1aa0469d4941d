package validation

// Severity is the three-tier classification of a data-quality finding.
type Severity string

const (
	// SeverityCritical rejects the dataset.
	SeverityCritical Severity = "CRITICAL"
	// SeverityWarning is accepted but logged.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo is informational only.
	SeverityInfo Severity = "INFO"
)

// IssueType identifies the class of problem found in a dataset.
type IssueType string

const (
	IssueMissingData        IssueType = "missing_data"
	IssueInvalidType        IssueType = "invalid_type"
	IssueNegativePrice      IssueType = "negative_price"
	IssueZeroVolume         IssueType = "zero_volume"
	IssuePriceInconsistency IssueType = "price_inconsistency"
	IssueDateGap            IssueType = "date_gap"
	IssueDateDuplicate      IssueType = "date_duplicate"
	IssueDateOrder          IssueType = "date_order"
	IssueExtremeVariation   IssueType = "extreme_variation"
	IssueVolumeAnomaly      IssueType = "volume_anomaly"
)

// Issue is one problem detected during validation. Value type,
// never mutated after creation.
type Issue struct {
	Type         IssueType
	Severity     Severity
	Description  string
	Symbol       string
	AffectedRows []int
	SuggestedFix string
}

// Fields returns a flat map for structured logging.
func (i Issue) Fields() map[string]interface{} {
	return map[string]interface{}{
		"issue_type":         string(i.Type),
		"severity":           string(i.Severity),
		"description":        i.Description,
		"symbol":             i.Symbol,
		"affected_rows_count": len(i.AffectedRows),
		"suggested_fix":      i.SuggestedFix,
	}
}
