package cli

import (
	"github.com/spf13/cobra"

	"daily-price-pipeline/internal/app"
)

var showSymbol string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored symbols and partition metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(app.ShowOptions{Symbol: showSymbol})
	},
}

func init() {
	showCmd.Flags().StringVar(&showSymbol, "symbol", "", "Limit output to one symbol and include backup state")
}
