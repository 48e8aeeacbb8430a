package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thecrazygm/hivebar/internal/bar"
	"github.com/thecrazygm/hivebar/internal/control"
	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/widget"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output notification status in Waybar's custom module JSON format.

Asks a running hivebard for its widget snapshot; when no daemon is on the
session bus, falls back to fetching the unread count directly.

Designed for Waybar's custom module:

  "custom/hive": {
    "exec": "hivebar status",
    "interval": 30,
    "return-type": "json",
    "on-click": "hivebar popup"
  }`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if status, ok := daemonStatus(); ok {
		return outputStatus(status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := hive.NewClient(cfg.Hive.Nodes, cfg.Hive.Timeout.Duration())
	unread, err := client.UnreadNotifications(ctx, cfg.Hive.Account)
	if err != nil {
		return outputStatus(bar.WaybarStatus{Text: "", Alt: "error", Class: widget.ClassError})
	}

	status := bar.WaybarStatus{Text: cfg.Notifications.EmptyText}
	if unread.Count > 0 {
		status.Text = fmt.Sprintf("%s %d", cfg.Notifications.Icon, unread.Count)
		status.Class = widget.ClassUnread
		status.Tooltip = fmt.Sprintf("%d unread notifications", unread.Count)
	}
	return outputStatus(status)
}

// daemonStatus builds the status from a running hivebard, if any.
func daemonStatus() (bar.WaybarStatus, bool) {
	client, err := control.Dial()
	if err != nil {
		return bar.WaybarStatus{}, false
	}
	defer client.Close()

	snapshot, err := client.Status()
	if err != nil {
		logger.Debug("no daemon on the bus, fetching directly", "error", err)
		return bar.WaybarStatus{}, false
	}

	status := bar.WaybarStatus{}
	var texts, lines []string
	for _, w := range snapshot.Widgets {
		if w.Text != "" {
			texts = append(texts, w.Text)
			lines = append(lines, w.Name+": "+w.Text)
		}
		if w.Class == widget.ClassError && status.Class != widget.ClassError {
			status.Class = widget.ClassError
		}
	}
	if status.Class == "" && snapshot.Unread > 0 {
		status.Class = widget.ClassUnread
	}
	status.Text = strings.Join(texts, cfg.Bar.Separator)
	status.Tooltip = strings.Join(lines, "\n")
	return status, true
}

func outputStatus(status bar.WaybarStatus) error {
	return json.NewEncoder(os.Stdout).Encode(status)
}
