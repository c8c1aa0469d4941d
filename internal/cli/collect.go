package cli

import (
	"os"

	"github.com/spf13/cobra"

	"daily-price-pipeline/internal/app"
)

var (
	collectSymbols  []string
	collectNoReport bool
	collectDryRun   bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass over the configured symbols",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := getApp().Collect(cmd.Context(), app.CollectOptions{
			Symbols:    collectSymbols,
			SkipReport: collectNoReport,
			DryRun:     collectDryRun,
		})
		if err != nil {
			return err
		}
		if code := stats.ExitCode(); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringSliceVar(&collectSymbols, "symbols", nil, "Symbols to collect, overriding the configured list")
	collectCmd.Flags().BoolVar(&collectNoReport, "no-report", false, "Skip quality report generation")
	collectCmd.Flags().BoolVar(&collectDryRun, "dry-run", false, "Fetch and validate without saving or reporting")
}
