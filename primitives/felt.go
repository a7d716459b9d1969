// Package primitives holds the records the node persists. Storage treats
// them as opaque payloads; they only need a codec.
package primitives

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Felt is a 252-bit field element stored as 32 big-endian bytes.
type Felt [32]byte

type (
	BlockHash       = Felt
	ContractAddress = Felt
	StorageKey      = Felt
	StorageValue    = Felt
	Nonce           = Felt
	ChainID         = Felt
)

// BlockNumber is the height of a block.
type BlockNumber = uint64

// FeltFromUint64 returns v as a field element.
func FeltFromUint64(v uint64) Felt {
	var f Felt
	for i := 0; i < 8; i++ {
		f[31-i] = byte(v >> (8 * i))
	}
	return f
}

// FeltFromHex parses a 0x-prefixed or bare hex string of at most 64 digits.
func FeltFromHex(s string) (Felt, error) {
	var f Felt
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) == 0 || len(s) > 64 {
		return f, fmt.Errorf("felt: invalid hex length %d", len(s))
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("felt: %w", err)
	}
	copy(f[32-len(b):], b)
	return f, nil
}

// ChainIDFromName encodes a short ASCII chain name such as "KATANA" the
// way Starknet chain ids are encoded.
func ChainIDFromName(name string) (ChainID, error) {
	var f Felt
	if len(name) > 31 {
		return f, fmt.Errorf("chain id %q longer than 31 bytes", name)
	}
	copy(f[32-len(name):], name)
	return f, nil
}

// IsZero reports whether f is zero.
func (f Felt) IsZero() bool { return f == Felt{} }

// Big returns f as an integer.
func (f Felt) Big() *big.Int { return new(big.Int).SetBytes(f[:]) }

// String returns the 0x-prefixed hex form without leading zeros.
func (f Felt) String() string {
	return "0x" + f.Big().Text(16)
}

func (f Felt) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Felt) UnmarshalText(b []byte) error {
	v, err := FeltFromHex(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
