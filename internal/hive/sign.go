package hive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ChainID identifies the Hive mainnet.
const ChainID = "beeab0de00000000000000000000000000000000000000000000000000000000"

// Transactions expire this long after the chain head time.
const expirationWindow = time.Minute

// Retry budget for the canonical signature search.
const maxSignAttempts = 16

var errNoCanonicalSig = errors.New("could not produce a canonical signature")

// Sign signs the transaction for the Hive mainnet, appending a compact
// hex signature. Nodes only accept canonical signatures; since signing is
// deterministic, a non-canonical result is retried with the expiration
// bumped by one second to vary the digest.
func (t *Transaction) Sign(key *secp256k1.PrivateKey) error {
	chainID, err := hex.DecodeString(ChainID)
	if err != nil {
		return fmt.Errorf("bad chain id: %w", err)
	}

	for attempt := 0; attempt < maxSignAttempts; attempt++ {
		digest := sha256.Sum256(append(chainID, t.Serialize()...))

		sig := ecdsa.SignCompact(key, digest[:], true)
		if isCanonical(sig) {
			t.Signatures = append(t.Signatures, hex.EncodeToString(sig))
			return nil
		}
		t.Expiration = t.Expiration.Add(time.Second)
	}
	return errNoCanonicalSig
}

// isCanonical reports whether a 65-byte compact signature satisfies the
// graphene canonicality rules: neither r nor s may carry a sign bit or a
// redundant leading zero byte.
func isCanonical(sig []byte) bool {
	return len(sig) == 65 &&
		sig[1]&0x80 == 0 &&
		!(sig[1] == 0 && sig[2]&0x80 == 0) &&
		sig[33]&0x80 == 0 &&
		!(sig[33] == 0 && sig[34]&0x80 == 0)
}

// BroadcastCustomJSON builds, signs, and broadcasts a single custom_json
// operation authorized by the account's posting key.
func (c *Client) BroadcastCustomJSON(ctx context.Context, key *secp256k1.PrivateKey, account, id string, payload any) error {
	body, err := jsonMarshalCompact(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal custom_json payload: %w", err)
	}

	props, err := c.DynamicGlobalProperties(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch chain properties: %w", err)
	}
	refNum, refPrefix, err := props.RefBlock()
	if err != nil {
		return err
	}
	headTime, err := props.HeadTime()
	if err != nil {
		return err
	}

	tx := &Transaction{
		RefBlockNum:    refNum,
		RefBlockPrefix: refPrefix,
		Expiration:     headTime.Add(expirationWindow),
		Operations: []CustomJSONOp{{
			RequiredAuths:        []string{},
			RequiredPostingAuths: []string{account},
			ID:                   id,
			JSON:                 body,
		}},
	}

	if err := tx.Sign(key); err != nil {
		return err
	}
	return c.BroadcastTransaction(ctx, tx)
}

// MarkNotificationsRead broadcasts the setLastRead marker used by the
// bridge API to compute unread counts.
func (c *Client) MarkNotificationsRead(ctx context.Context, key *secp256k1.PrivateKey, account string, at time.Time) error {
	payload := []any{
		"setLastRead",
		map[string]string{"date": at.UTC().Format(TimeLayout)},
	}
	return c.BroadcastCustomJSON(ctx, key, account, "notify", payload)
}
