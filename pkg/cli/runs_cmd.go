package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"infra-etl/internal/domain"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs from the metastore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if cfg.MetastorePath == "" {
				return fmt.Errorf("run history is disabled: ETL_METASTORE_PATH is empty")
			}
			runs, closeRuns, err := openRunHistory(cfg, logger)
			if err != nil {
				return err
			}
			defer closeRuns()

			history, err := runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(os.Stdout, "No runs recorded")
				return nil
			}
			printRuns(os.Stdout, history)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func printRuns(w io.Writer, history []domain.EtlRun) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "%-36s  %-10s  %-19s  %-12s  %s\n",
		"RUN ID", "STATUS", "STARTED", "DURATION", "DETAIL")
	for _, r := range history {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		detail := ""
		switch {
		case r.FailedStage != nil:
			detail = "failed at " + *r.FailedStage
		case r.ErrorMessage != nil:
			detail = *r.ErrorMessage
		case r.AllQualityPassed != nil && !*r.AllQualityPassed:
			detail = "quality findings"
		}
		fmt.Fprintf(w, "%-36s  %-10s  %-19s  %-12s  %s\n",
			r.ID, colorStatus(r.Status), r.StartedAt.Format("2006-01-02 15:04:05"), duration, detail)
	}
}

func colorStatus(status string) string {
	switch status {
	case domain.RunStatusSuccess:
		return color.GreenString(status)
	case domain.RunStatusFailed:
		return color.RedString(status)
	case domain.RunStatusRunning:
		return color.YellowString(status)
	default:
		return status
	}
}
