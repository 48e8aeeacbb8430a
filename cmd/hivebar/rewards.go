package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/widget"
)

var rewardsCmd = &cobra.Command{
	Use:   "rewards [account]",
	Short: "Show unclaimed Hive reward balances",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRewards,
}

func init() {
	rootCmd.AddCommand(rewardsCmd)
}

func runRewards(cmd *cobra.Command, args []string) error {
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
	rewards, err := client.AccountRewards(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to fetch rewards for %s: %w", account, err)
	}

	fmt.Println(widget.FormatRewards(rewards))
	return nil
}
