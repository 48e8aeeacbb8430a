package hive

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// WIF version byte shared by Hive and Bitcoin.
const wifVersion = 0x80

// WIF decode errors.
var (
	ErrInvalidWIF     = errors.New("invalid WIF: wrong length or version")
	ErrWIFChecksum    = errors.New("invalid WIF: checksum mismatch")
	ErrInvalidPrivKey = errors.New("invalid WIF: key out of range")
)

// DecodeWIF decodes a base58check private key string.
// Hive WIFs are always the 37-byte uncompressed form.
func DecodeWIF(wif string) (*secp256k1.PrivateKey, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 || decoded[0] != wifVersion {
		return nil, ErrInvalidWIF
	}

	payload, checksum := decoded[:33], decoded[33:]
	h1 := sha256.Sum256(payload)
	h2 := sha256.Sum256(h1[:])
	if subtle.ConstantTimeCompare(h2[:4], checksum) != 1 {
		return nil, ErrWIFChecksum
	}

	key := secp256k1.PrivKeyFromBytes(payload[1:33])
	if key.Key.IsZero() {
		return nil, ErrInvalidPrivKey
	}
	return key, nil
}
