package widget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thecrazygm/hivebar/internal/hive"
)

type fakeRewards struct {
	rewards hive.Rewards
	err     error
}

func (f *fakeRewards) AccountRewards(ctx context.Context, account string) (hive.Rewards, error) {
	return f.rewards, f.err
}

func TestRewardsPoll(t *testing.T) {
	api := &fakeRewards{rewards: hive.Rewards{
		Hive:  "1.234 HIVE",
		HBD:   "0.567 HBD",
		Vests: "100.000000 VESTS",
	}}
	w := NewRewards(testLogger(), api, "alice", 15*time.Minute)

	state := w.Poll(context.Background())
	assert.Equal(t, "R: 1.234 | 0.567 | 100.000000", state.Text)
	assert.Empty(t, state.Class)
}

func TestRewardsError(t *testing.T) {
	w := NewRewards(testLogger(), &fakeRewards{err: errors.New("node down")}, "alice", time.Minute)

	state := w.Poll(context.Background())
	assert.Equal(t, rewardsErrorText, state.Text)
	assert.Equal(t, ClassError, state.Class)
}
