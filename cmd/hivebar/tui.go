package main

import (
	"context"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/spf13/cobra"

	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/model"
	"github.com/thecrazygm/hivebar/internal/tui"
)

var tuiOpts struct {
	all   bool
	limit int
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive notification browser",
	Long: `Launch the interactive terminal browser for Hive notifications.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       View notification details
  c           Copy link to clipboard
  s           Copy message to clipboard
  m           Mark all notifications as read
  a           Toggle showing read notifications
  /           Search notifications
  r           Refresh
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.all, "all", true,
		"Show already-read notifications at startup")
	tuiCmd.Flags().IntVarP(&tuiOpts.limit, "limit", "n", 0,
		"Maximum notifications to fetch (0=config default)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if cfg.Hive.Account == "" {
		return fmt.Errorf("no hive account configured, set [hive] account in the config")
	}

	client := hive.NewClient(cfg.Hive.Nodes, cfg.Hive.Timeout.Duration())
	limit := tuiOpts.limit
	if limit <= 0 {
		limit = cfg.Notifications.Limit
	}

	source := &hiveSource{client: client, account: cfg.Hive.Account, limit: limit}

	// Mark-as-read is only offered when the posting key is present.
	var marker tui.Marker
	if wif := cfg.WIF(); wif != "" {
		key, err := hive.DecodeWIF(wif)
		if err != nil {
			return fmt.Errorf("bad posting key in %s: %w", cfg.Hive.WIFEnv, err)
		}
		marker = &hiveMarker{client: client, account: cfg.Hive.Account, key: key}
	}

	return tui.Run(source, marker, tuiOpts.all)
}

// hiveSource feeds the browser straight from the bridge API.
type hiveSource struct {
	client  *hive.Client
	account string
	limit   int
}

func (s *hiveSource) Fetch(ctx context.Context) ([]model.Record, time.Time, error) {
	records, err := s.client.AccountNotifications(ctx, s.account, s.limit)
	if err != nil {
		return nil, time.Time{}, err
	}
	unread, err := s.client.UnreadNotifications(ctx, s.account)
	if err != nil {
		return nil, time.Time{}, err
	}

	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out, unread.Lastread, nil
}

type hiveMarker struct {
	client  *hive.Client
	account string
	key     *secp256k1.PrivateKey
}

func (m *hiveMarker) MarkRead(ctx context.Context) (string, error) {
	if err := m.client.MarkNotificationsRead(ctx, m.key, m.account, time.Now().UTC()); err != nil {
		return "", err
	}
	return "marked notifications as read", nil
}
