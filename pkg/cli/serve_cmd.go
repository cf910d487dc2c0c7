package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"infra-etl/internal/etl"
	"infra-etl/internal/ops"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled pipeline runs with the ops HTTP server",
		Long: `Start the cron scheduler and the operational HTTP server (health,
readiness, Prometheus metrics). Scheduled runs never overlap: a tick that
fires while a run is in flight is skipped. SIGINT or SIGTERM shuts both
down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			runs, closeRuns, err := openRunHistory(cfg, logger)
			if err != nil {
				return err
			}
			defer closeRuns()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := etl.NewOrchestrator(cfg, runs, logger)
			sched := etl.NewScheduler(orch, cfg.Schedule, logger)
			srv := ops.NewServer(cfg.ListenAddr, logger)

			if err := sched.Start(ctx); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })
			g.Go(func() error {
				<-gctx.Done()
				sched.Stop()
				return nil
			})

			srv.SetReady(true)
			logger.Info("serving", "addr", cfg.ListenAddr, "schedule", cfg.Schedule)

			return g.Wait()
		},
	}
}
