package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thecrazygm/hivebar/internal/hive"
)

const rewardsErrorText = "Rewards: Error"

// RewardsAPI is the subset of the Hive client the rewards widget needs.
type RewardsAPI interface {
	AccountRewards(ctx context.Context, account string) (hive.Rewards, error)
}

// RewardsWidget shows an account's unclaimed reward balances.
type RewardsWidget struct {
	log      *slog.Logger
	api      RewardsAPI
	account  string
	interval time.Duration
}

// NewRewards builds the rewards widget.
func NewRewards(log *slog.Logger, api RewardsAPI, account string, interval time.Duration) *RewardsWidget {
	return &RewardsWidget{
		log:      log.With("widget", "hive-rewards"),
		api:      api,
		account:  account,
		interval: interval,
	}
}

// Name implements Widget.
func (w *RewardsWidget) Name() string {
	return "hive-rewards"
}

// Interval implements Widget.
func (w *RewardsWidget) Interval() time.Duration {
	return w.interval
}

// Poll implements Widget.
func (w *RewardsWidget) Poll(ctx context.Context) State {
	rewards, err := w.api.AccountRewards(ctx, w.account)
	if err != nil {
		w.log.Warn("rewards fetch failed", "error", err)
		return State{Text: rewardsErrorText, Class: ClassError}
	}
	return State{Text: FormatRewards(rewards)}
}

// FormatRewards renders reward balances for the bar and the CLI.
// Balance strings come back with their unit suffix already attached.
func FormatRewards(r hive.Rewards) string {
	trim := func(s, unit string) string {
		return strings.TrimSuffix(s, " "+unit)
	}
	return fmt.Sprintf("R: %s | %s | %s",
		trim(r.Hive, "HIVE"), trim(r.HBD, "HBD"), trim(r.Vests, "VESTS"))
}
