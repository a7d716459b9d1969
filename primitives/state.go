package primitives

import "github.com/Giulio2002/chainkv/codec"

// StorageEntry is one storage slot of a contract. Encoded as key || value,
// so the slots of a contract sort by key in a dup-sorted table.
type StorageEntry struct {
	Key   StorageKey
	Value StorageValue
}

// ContractNonceChange records the nonce a contract reached in a block.
// Encoded as address || nonce.
type ContractNonceChange struct {
	ContractAddress ContractAddress
	Nonce           Nonce
}

type pairCodec[T any] struct {
	name  string
	split func(*T) (*Felt, *Felt)
}

func (c pairCodec[T]) Encode(v T) []byte {
	a, b := c.split(&v)
	out := make([]byte, 64)
	copy(out, a[:])
	copy(out[32:], b[:])
	return out
}

func (c pairCodec[T]) Decode(raw []byte) (T, error) {
	var v T
	if len(raw) != 64 {
		return v, &codec.DecodeError{Type: c.name, Len: len(raw), Reason: "want 64 bytes"}
	}
	a, b := c.split(&v)
	copy(a[:], raw[:32])
	copy(b[:], raw[32:])
	return v, nil
}

var (
	// StorageEntryCodec is the fixed 64-byte layout of StorageEntry.
	StorageEntryCodec codec.Codec[StorageEntry] = pairCodec[StorageEntry]{
		name:  "StorageEntry",
		split: func(e *StorageEntry) (*Felt, *Felt) { return &e.Key, &e.Value },
	}
	// NonceChangeCodec is the fixed 64-byte layout of ContractNonceChange.
	NonceChangeCodec codec.Codec[ContractNonceChange] = pairCodec[ContractNonceChange]{
		name:  "ContractNonceChange",
		split: func(c *ContractNonceChange) (*Felt, *Felt) { return &c.ContractAddress, &c.Nonce },
	}
)
