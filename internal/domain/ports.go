package domain

import "context"

// RunCompletion carries the terminal fields written when a run finishes.
type RunCompletion struct {
	Status           string
	FailedStage      *string
	ErrorMessage     *string
	RecordCounts     *string
	AllQualityPassed *bool
}

// RunRepository persists pipeline run history.
type RunRepository interface {
	Insert(ctx context.Context, run *EtlRun) error
	Finish(ctx context.Context, id string, completion RunCompletion) error
	List(ctx context.Context, limit int) ([]EtlRun, error)
	Get(ctx context.Context, id string) (*EtlRun, error)
}
