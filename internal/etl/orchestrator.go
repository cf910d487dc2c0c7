package etl

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"infra-etl/internal/config"
	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
	"infra-etl/internal/metrics"
)

// State is the orchestrator's position in the run lifecycle.
type State string

// Lifecycle states. Failed is absorbing within a run: no stage executes
// after a failure.
const (
	StateIdle            State = "idle"
	StateExtracting      State = "extracting"
	StateTransforming    State = "transforming"
	StateLoading         State = "loading"
	StateBuildingViews   State = "building_views"
	StateCheckingQuality State = "checking_quality"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Result summarizes one finished run.
type Result struct {
	RunID       string
	State       State
	FailedStage string
	Metadata    *domain.PipelineMetadata
	Quality     *domain.QualityReport
	Duration    time.Duration
}

// Orchestrator executes the stages in fixed order: extract, transform,
// load, views, quality. A failure at any stage halts the remainder and the
// engine session is released on every exit path. There are no retries; a
// failed batch is re-run wholesale.
type Orchestrator struct {
	cfg    *config.Config
	runs   domain.RunRepository // nil disables run history
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewOrchestrator creates a pipeline orchestrator. runs may be nil when
// run history is disabled.
func NewOrchestrator(cfg *config.Config, runs domain.RunRepository, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		runs:   runs,
		logger: logger.With("component", "pipeline"),
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run executes one full pipeline run. The returned Result is never nil;
// the error is non-nil exactly when the run failed structurally.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	res := &Result{RunID: uuid.NewString(), State: StateIdle}
	logger := o.logger.With("run_id", res.RunID)

	logger.Info("pipeline started")
	o.recordStart(ctx, res.RunID, started, logger)

	sess, err := engine.Open(o.cfg.DuckDBPath)
	if err != nil {
		return o.finishFailed(ctx, res, started, "", err, logger)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("close engine session", "error", cerr)
		}
	}()

	extract := NewExtractor(sess, o.cfg.RawDir(), logger)
	transform := NewTransformer(sess, logger)
	load := NewLoader(sess, o.cfg.OutputDir, logger)
	views := NewViewBuilder(sess, o.cfg.OutputDir, logger)
	quality := NewQualityChecker(sess, o.cfg.OutputDir, logger)

	if err := o.runStage(ctx, StateExtracting, domain.StageExtract, logger, extract.Run); err != nil {
		return o.finishFailed(ctx, res, started, domain.StageExtract, err, logger)
	}
	if err := o.runStage(ctx, StateTransforming, domain.StageTransform, logger, transform.Run); err != nil {
		return o.finishFailed(ctx, res, started, domain.StageTransform, err, logger)
	}
	if err := o.runStage(ctx, StateLoading, domain.StageLoad, logger, func(ctx context.Context) error {
		meta, err := load.Run(ctx)
		if err != nil {
			return err
		}
		res.Metadata = meta
		return nil
	}); err != nil {
		return o.finishFailed(ctx, res, started, domain.StageLoad, err, logger)
	}
	if err := o.runStage(ctx, StateBuildingViews, domain.StageViews, logger, views.Run); err != nil {
		return o.finishFailed(ctx, res, started, domain.StageViews, err, logger)
	}
	if err := o.runStage(ctx, StateCheckingQuality, domain.StageQuality, logger, func(ctx context.Context) error {
		report, err := quality.Run(ctx)
		if err != nil {
			return err
		}
		res.Quality = report
		return nil
	}); err != nil {
		return o.finishFailed(ctx, res, started, domain.StageQuality, err, logger)
	}

	return o.finishDone(ctx, res, started, logger), nil
}

// runStage advances the state machine, times the stage, and records its
// duration metric on success and failure alike.
func (o *Orchestrator) runStage(ctx context.Context, state State, stage string,
	logger *slog.Logger, fn func(context.Context) error) error {

	o.setState(state)
	logger.Info("stage started", "stage", stage)
	start := time.Now()

	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())

	if err != nil {
		logger.Error("stage failed", "stage", stage, "duration", elapsed, "error", err)
		return err
	}
	logger.Info("stage finished", "stage", stage, "duration", elapsed)
	return nil
}

func (o *Orchestrator) finishDone(ctx context.Context, res *Result, started time.Time, logger *slog.Logger) *Result {
	o.setState(StateDone)
	res.State = StateDone
	res.Duration = time.Since(started)

	metrics.RunsTotal.WithLabelValues("success").Inc()
	for relation, count := range res.Metadata.RecordCounts {
		metrics.RecordsProcessed.WithLabelValues(relation).Set(float64(count))
	}
	for _, check := range res.Quality.Checks {
		if !check.Passed {
			metrics.QualityCheckFailures.WithLabelValues(check.CheckName).Inc()
		}
	}

	o.recordFinish(ctx, res, nil, logger)
	logger.Info("pipeline succeeded", "duration", res.Duration, "all_quality_passed", res.Quality.AllPassed)
	return res
}

func (o *Orchestrator) finishFailed(ctx context.Context, res *Result, started time.Time,
	stage string, err error, logger *slog.Logger) (*Result, error) {

	o.setState(StateFailed)
	res.State = StateFailed
	res.FailedStage = stage
	res.Duration = time.Since(started)

	metrics.RunsTotal.WithLabelValues("failed").Inc()
	logger.Error("pipeline failed", "stage", stage, "duration", res.Duration, "error", err)
	o.recordFinish(ctx, res, err, logger)
	return res, err
}

// recordStart inserts the run row. Run history must never fail a
// structurally sound pipeline, so errors are logged and dropped.
func (o *Orchestrator) recordStart(ctx context.Context, runID string, started time.Time, logger *slog.Logger) {
	if o.runs == nil {
		return
	}
	run := &domain.EtlRun{ID: runID, Status: domain.RunStatusRunning, StartedAt: started}
	if err := o.runs.Insert(ctx, run); err != nil {
		logger.Warn("record run start", "error", err)
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, res *Result, runErr error, logger *slog.Logger) {
	if o.runs == nil {
		return
	}

	completion := domain.RunCompletion{Status: domain.RunStatusSuccess}
	if runErr != nil {
		completion.Status = domain.RunStatusFailed
		if res.FailedStage != "" {
			completion.FailedStage = &res.FailedStage
		}
		msg := runErr.Error()
		completion.ErrorMessage = &msg
	}
	if res.Metadata != nil {
		if counts, err := json.Marshal(res.Metadata.RecordCounts); err == nil {
			s := string(counts)
			completion.RecordCounts = &s
		}
	}
	if res.Quality != nil {
		completion.AllQualityPassed = &res.Quality.AllPassed
	}

	if err := o.runs.Finish(ctx, res.RunID, completion); err != nil {
		logger.Warn("record run finish", "error", err)
	}
}
