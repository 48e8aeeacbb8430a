package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/model"
)

var notificationsOpts struct {
	all    bool
	page   int
	size   int
	limit  int
	clear  bool
	raw    bool
	format string
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications [account]",
	Aliases: []string{"notif", "n"},
	Short:   "List Hive notifications",
	Long: `List Hive notifications for an account (default: the configured one).

By default only notifications newer than the account's lastread marker are
shown. Use --all to include already-read notifications.

Examples:
  # Show unread notifications as a table
  hivebar notifications

  # Second page, five per page, including read ones
  hivebar notifications --all --page 2 --size 5

  # Machine-readable output
  hivebar notifications --format json

  # Mark everything as read (needs the posting key in the environment)
  hivebar notifications --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNotifications,
}

func init() {
	rootCmd.AddCommand(notificationsCmd)

	notificationsCmd.Flags().BoolVar(&notificationsOpts.all, "all", false,
		"Include notifications older than the lastread marker")
	notificationsCmd.Flags().IntVar(&notificationsOpts.page, "page", 1,
		"Page to show (1-based)")
	notificationsCmd.Flags().IntVar(&notificationsOpts.size, "size", 10,
		"Notifications per page")
	notificationsCmd.Flags().IntVarP(&notificationsOpts.limit, "limit", "n", 0,
		"Maximum notifications to fetch (0=config default)")
	notificationsCmd.Flags().BoolVar(&notificationsOpts.clear, "clear", false,
		"Mark all notifications as read via a setLastRead broadcast")
	notificationsCmd.Flags().BoolVar(&notificationsOpts.raw, "debug", false,
		"Include the raw message and link for each record")
	notificationsCmd.Flags().StringVarP(&notificationsOpts.format, "format", "f", "table",
		"Output format (table, json, yaml)")
}

func runNotifications(cmd *cobra.Command, args []string) error {
	account := cfg.Hive.Account
	if len(args) > 0 {
		account = args[0]
	}
	if account == "" {
		return fmt.Errorf("no hive account configured, set [hive] account in the config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := hive.NewClient(cfg.Hive.Nodes, cfg.Hive.Timeout.Duration())

	if notificationsOpts.clear {
		return clearNotifications(ctx, client, account)
	}

	records, err := fetchNotifications(ctx, client, account)
	if err != nil {
		return err
	}

	switch notificationsOpts.format {
	case "table":
		return printNotificationTable(records)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(records)
	default:
		return fmt.Errorf("unknown format %q (want table, json, or yaml)", notificationsOpts.format)
	}
}

// fetchNotifications pulls records, applies the lastread filter, and
// slices out the requested page.
func fetchNotifications(ctx context.Context, client *hive.Client, account string) ([]*model.Record, error) {
	limit := notificationsOpts.limit
	if limit <= 0 {
		limit = cfg.Notifications.Limit
	}

	records, err := client.AccountNotifications(ctx, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	if !notificationsOpts.all {
		unread, err := client.UnreadNotifications(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch unread marker: %w", err)
		}
		filtered := records[:0]
		for _, r := range records {
			if r.Date.After(unread.Lastread) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	page := notificationsOpts.page
	size := notificationsOpts.size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = len(records)
	}
	start := (page - 1) * size
	if start >= len(records) {
		return nil, nil
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], nil
}

func printNotificationTable(records []*model.Record) error {
	if len(records) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	senderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	for i, r := range records {
		line := fmt.Sprintf("%2d. %s %s %s",
			i+1,
			senderStyle.Render(r.Sender()),
			r.Summary(),
			timeStyle.Render("("+r.RelativeTime()+")"))
		fmt.Println(line)
		if notificationsOpts.raw && r.URL != "" {
			fmt.Println("    " + urlStyle.Render("https://hive.blog/"+r.URL))
		}
	}
	return nil
}

// clearNotifications broadcasts setLastRead with the current time. The
// posting key never appears in the config file, only in the environment.
func clearNotifications(ctx context.Context, client *hive.Client, account string) error {
	wif := cfg.WIF()
	if wif == "" {
		fmt.Printf("no posting key in environment (%s), skipping mark as read\n", cfg.Hive.WIFEnv)
		return nil
	}
	key, err := hive.DecodeWIF(wif)
	if err != nil {
		return fmt.Errorf("bad posting key: %w", err)
	}
	if err := client.MarkNotificationsRead(ctx, key, account, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to broadcast setLastRead: %w", err)
	}
	fmt.Println("marked notifications as read")
	return nil
}
