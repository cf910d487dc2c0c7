package etl

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"infra-etl/internal/domain"
)

// Scheduler triggers pipeline runs on a cron schedule. Runs are strictly
// sequential: a tick that arrives while a run is in flight is skipped, not
// queued.
type Scheduler struct {
	cron    *cron.Cron
	orch    *Orchestrator
	logger  *slog.Logger
	spec    string
	running atomic.Bool
}

// NewScheduler creates a scheduler for the given cron spec (standard five
// field syntax).
func NewScheduler(orch *Orchestrator, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		orch:   orch,
		logger: logger.With("component", "scheduler"),
		spec:   spec,
	}
}

// Start validates the schedule, registers the job, and starts the cron
// loop in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return domain.ErrValidation("invalid cron schedule %q: %v", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in flight, skipping tick")
		return
	}
	defer s.running.Store(false)

	if _, err := s.orch.Run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
