// Package cli implements the etl command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "etl",
		Short: "Country infrastructure indicators data platform",
		Long: `Batch ETL for country-level infrastructure resilience indicators.

Collect raw datasets from the World Bank API, run the pipeline that derives
the analytical relations, and serve scheduled runs with an operational HTTP
endpoint. Configuration comes from ETL_* environment variables and an
optional .env file; root flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides ETL_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides ETL_LOG_FORMAT)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
