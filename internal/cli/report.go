package cli

import (
	"github.com/spf13/cobra"

	"daily-price-pipeline/internal/app"
)

var reportSymbols []string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render price charts from stored data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Report(app.ReportOptions{Symbols: reportSymbols})
	},
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportSymbols, "symbols", nil, "Symbols to chart, defaulting to everything stored")
}
