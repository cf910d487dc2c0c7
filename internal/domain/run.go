package domain

import "time"

// Run status constants.
const (
	RunStatusPending = "PENDING"
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// Stage names recorded with a failed run.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageViews     = "views"
	StageQuality   = "quality"
)

// EtlRun represents one execution of the pipeline in the run-history
// metastore.
type EtlRun struct {
	ID               string
	Status           string
	StartedAt        time.Time
	FinishedAt       *time.Time
	FailedStage      *string
	ErrorMessage     *string
	RecordCounts     *string // JSON object, relation name -> row count
	AllQualityPassed *bool
	CreatedAt        time.Time
}
