package hive

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/thecrazygm/hivebar/internal/model"
)

// TimeLayout is the timestamp format used by Hive nodes (UTC, no zone).
const TimeLayout = "2006-01-02T15:04:05"

type rawNotification struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Date  string `json:"date"`
	Msg   string `json:"msg"`
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// AccountNotifications fetches the latest notifications for an account,
// newest first. Each record gets a locally assigned ULID.
func (c *Client) AccountNotifications(ctx context.Context, account string, limit int) ([]*model.Record, error) {
	params := map[string]any{"account": account, "limit": limit}

	var raw []rawNotification
	if err := c.call(ctx, "bridge.account_notifications", params, &raw); err != nil {
		return nil, err
	}

	records := make([]*model.Record, 0, len(raw))
	for _, n := range raw {
		date, err := time.ParseInLocation(TimeLayout, n.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad notification date %q: %w", n.Date, err)
		}
		rec, err := model.NewRecord()
		if err != nil {
			return nil, err
		}
		rec.Type = n.Type
		rec.Date = date
		rec.Msg = n.Msg
		rec.URL = n.URL
		rec.Score = n.Score
		records = append(records, rec)
	}
	return records, nil
}

// Unread is the response of bridge.unread_notifications.
type Unread struct {
	Lastread time.Time
	Count    int
}

// UnreadNotifications fetches the unread count and lastread marker.
func (c *Client) UnreadNotifications(ctx context.Context, account string) (Unread, error) {
	params := map[string]any{"account": account}

	var raw struct {
		Lastread string `json:"lastread"`
		Unread   int    `json:"unread"`
	}
	if err := c.call(ctx, "bridge.unread_notifications", params, &raw); err != nil {
		return Unread{}, err
	}

	u := Unread{Count: raw.Unread}
	if raw.Lastread != "" {
		// Lastread comes back with a space separator, unlike other timestamps
		lastread, err := time.ParseInLocation("2006-01-02 15:04:05", raw.Lastread, time.UTC)
		if err != nil {
			lastread, err = time.ParseInLocation(TimeLayout, raw.Lastread, time.UTC)
			if err != nil {
				return Unread{}, fmt.Errorf("bad lastread date %q: %w", raw.Lastread, err)
			}
		}
		u.Lastread = lastread
	}
	return u, nil
}

// Rewards holds an account's unclaimed reward balances.
type Rewards struct {
	Hive  string
	HBD   string
	Vests string
}

// AccountRewards fetches the unclaimed reward balances for an account.
func (c *Client) AccountRewards(ctx context.Context, account string) (Rewards, error) {
	var raw []struct {
		RewardHiveBalance    string `json:"reward_hive_balance"`
		RewardHBDBalance     string `json:"reward_hbd_balance"`
		RewardVestingBalance string `json:"reward_vesting_balance"`
	}
	if err := c.call(ctx, "condenser_api.get_accounts", [][]string{{account}}, &raw); err != nil {
		return Rewards{}, err
	}
	if len(raw) == 0 {
		return Rewards{}, fmt.Errorf("account %q not found", account)
	}
	return Rewards{
		Hive:  raw[0].RewardHiveBalance,
		HBD:   raw[0].RewardHBDBalance,
		Vests: raw[0].RewardVestingBalance,
	}, nil
}

// GlobalProperties is the subset of get_dynamic_global_properties needed
// to build a transaction's TaPoS reference.
type GlobalProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            string `json:"time"`
}

// DynamicGlobalProperties fetches the current chain head state.
func (c *Client) DynamicGlobalProperties(ctx context.Context) (GlobalProperties, error) {
	var props GlobalProperties
	if err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props); err != nil {
		return GlobalProperties{}, err
	}
	return props, nil
}

// RefBlock derives the transaction reference block fields from the chain
// head: the low 16 bits of the block number, and bytes 4..8 of the block
// id read little-endian.
func (p GlobalProperties) RefBlock() (uint16, uint32, error) {
	id, err := hex.DecodeString(p.HeadBlockID)
	if err != nil || len(id) < 8 {
		return 0, 0, fmt.Errorf("bad head block id %q", p.HeadBlockID)
	}
	return uint16(p.HeadBlockNumber & 0xFFFF), binary.LittleEndian.Uint32(id[4:8]), nil
}

// HeadTime parses the chain head timestamp.
func (p GlobalProperties) HeadTime() (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, p.Time, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad head time %q: %w", p.Time, err)
	}
	return t, nil
}

// BroadcastTransaction submits a signed transaction.
func (c *Client) BroadcastTransaction(ctx context.Context, tx *Transaction) error {
	return c.call(ctx, "condenser_api.broadcast_transaction", []any{tx}, nil)
}
