package cli

import (
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run collection on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Schedule(cmd.Context())
	},
}
