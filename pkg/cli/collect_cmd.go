package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"infra-etl/internal/collector"
	"infra-etl/internal/domain"
)

func newCollectCmd() *cobra.Command {
	var (
		sample         bool
		indicatorsFile string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect upstream datasets into the raw data directory",
		Long: `Fetch World Bank indicator series into <data_dir>/raw and write the data
catalog and collection report. A failed indicator is logged and skipped; the
remaining indicators are still collected.`,
		Example: `  # Fetch the built-in indicator set
  etl collect

  # Fetch indicators listed in a manifest
  etl collect --indicators indicators.yaml

  # Generate the synthetic scores dataset instead of calling the API
  etl collect --sample`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			var indicators []domain.Indicator
			if !sample {
				if indicatorsFile == "" {
					indicatorsFile = cfg.IndicatorsFile
				}
				indicators, err = collector.LoadIndicators(indicatorsFile)
				if err != nil {
					return err
				}
			}

			client := collector.NewWorldBankClient(cfg.WorldBankBaseURL, cfg.WorldBankTimeout, cfg.WorldBankRate, logger)
			coll := collector.New(client, cfg.DataDir, cfg.RawDir(), logger)

			report, err := coll.Run(cmd.Context(), indicators, sample)
			if err != nil {
				return err
			}
			if report.DatasetsCollected == 0 {
				fmt.Fprintln(os.Stdout, "No datasets collected")
				return nil
			}
			fmt.Fprintf(os.Stdout, "Collected %d datasets (%.2f MB) into %s\n",
				report.DatasetsCollected, report.TotalSizeMB, report.DataDirectory)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Generate the synthetic scores dataset instead of calling the API")
	cmd.Flags().StringVar(&indicatorsFile, "indicators", "", "YAML indicator manifest (overrides ETL_INDICATORS_FILE)")

	return cmd
}
