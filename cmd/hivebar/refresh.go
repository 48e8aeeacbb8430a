package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thecrazygm/hivebar/internal/control"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [widget]",
	Short: "Re-poll a daemon widget, or everything",
	Long: `Re-poll a daemon widget immediately instead of waiting for its interval.

Without an argument all widgets are refreshed. Widget names match the
daemon's status output, e.g. hive-notifications or ticker-btc.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := control.Dial()
		if err != nil {
			return err
		}
		defer client.Close()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		if err := client.Refresh(name); err != nil {
			return fmt.Errorf("is hivebard running? %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
