package domain

import "time"

// Quality check names.
const (
	QualityCheckNullValues = "null_values"
	QualityCheckDuplicates = "duplicates"
)

// QualityCheckResult records one integrity assertion over a derived relation.
// A failed check is a finding, not a pipeline failure.
type QualityCheckResult struct {
	CheckName string `json:"check_name"`
	Passed    bool   `json:"passed"`
	Details   string `json:"details"`
}

// QualityReport is the persisted outcome of the quality stage. Checks appear
// in execution order; AllPassed is the conjunction of every check.
type QualityReport struct {
	Timestamp time.Time            `json:"timestamp"`
	Checks    []QualityCheckResult `json:"checks"`
	AllPassed bool                 `json:"all_passed"`
}
