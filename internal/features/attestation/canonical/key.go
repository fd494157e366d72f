// Package canonical derives the 32-byte on-chain correlation keys used by the
// attestation contract from off-chain identifiers (event, activity and proof ids).
package canonical

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Size is the key width in bytes (a solidity bytes32).
const Size = 32

var ErrInvalidKey = errors.New("canonical: key must be 0x followed by 64 hex digits")

// Key is a bytes32 value as stored by the ledger.
type Key [Size]byte

// Zero is the ledger's "never issued" sentinel.
var Zero Key

// FromString maps any identifier to a Key.
//
// Hyphens are ignored when checking for an already encoded key, so a 0x-prefixed
// 64 digit hex string passes through unchanged. Anything else is taken as raw
// UTF-8 bytes: up to 32 bytes are right-padded with zeros (the layout of keys
// already on the ledger), longer inputs are hashed with keccak256 so they are
// never truncated.
func FromString(input string) Key {
	stripped := strings.ReplaceAll(input, "-", "")
	if k, ok := parseHex(stripped); ok {
		return k
	}

	raw := []byte(input)
	if len(raw) > Size {
		return Key(crypto.Keccak256Hash(raw))
	}

	var k Key
	copy(k[:], raw)
	return k
}

// Parse accepts only the strict 0x + 64 hex digit form.
func Parse(s string) (Key, error) {
	k, ok := parseHex(s)
	if !ok {
		return Zero, ErrInvalidKey
	}
	return k, nil
}

// IsKeyString reports whether s is already an encoded key.
func IsKeyString(s string) bool {
	_, ok := parseHex(s)
	return ok
}

func parseHex(s string) (Key, bool) {
	// The prefix is case-sensitive; digits are not.
	if len(s) != 2+2*Size || !strings.HasPrefix(s, "0x") {
		return Zero, false
	}
	var k Key
	if _, err := hex.Decode(k[:], []byte(s[2:])); err != nil {
		return Zero, false
	}
	return k, true
}

func (k Key) IsZero() bool {
	return k == Zero
}

// Hex renders the key as 0x + 64 lower-case hex digits.
func (k Key) Hex() string {
	return hexutil.Encode(k[:])
}

func (k Key) String() string {
	return k.Hex()
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.Hex()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
