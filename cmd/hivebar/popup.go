package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thecrazygm/hivebar/internal/control"
)

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Toggle the daemon's notification popup",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := control.Dial()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.TogglePopup(); err != nil {
			return fmt.Errorf("is hivebard running? %w", err)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Ask the daemon to mark all notifications as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := control.Dial()
		if err != nil {
			return err
		}
		defer client.Close()

		msg, err := client.MarkAsRead()
		if err != nil {
			return fmt.Errorf("is hivebard running? %w", err)
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(popupCmd)
	rootCmd.AddCommand(clearCmd)
}
