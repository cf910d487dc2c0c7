package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"infra-etl/internal/etl"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run end to end",
		Long: `Run the full pipeline once: extract raw CSV files into the analytic
engine, derive the clean and aggregate relations, export them, build the
top-performers view, and run the data quality checks.

The process exits non-zero when the run fails structurally. Quality findings
do not fail the run; they are recorded in the quality report.`,
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

			orch := etl.NewOrchestrator(cfg, runs, logger)
			res, err := orch.Run(cmd.Context())
			if err != nil {
				if res.FailedStage != "" {
					return fmt.Errorf("pipeline failed at %s stage: %w", res.FailedStage, err)
				}
				return err
			}

			fmt.Fprintf(os.Stdout, "Run %s finished in %s\n", res.RunID, res.Duration.Round(time.Millisecond))
			for _, name := range res.Metadata.TablesCreated {
				fmt.Fprintf(os.Stdout, "  %-22s %8d rows\n", name, res.Metadata.RecordCounts[name])
			}
			if !res.Quality.AllPassed {
				fmt.Fprintln(os.Stdout, "Quality checks reported findings, see quality_report.json")
			}
			return nil
		},
	}
}
