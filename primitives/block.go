package primitives

import (
	"fmt"
	"strconv"
	"strings"
)

// GasPrices are the L1 gas prices of a block, in wei and fri.
type GasPrices struct {
	Eth  uint64 `json:"eth"`
	Strk uint64 `json:"strk"`
}

// Header is a block header.
type Header struct {
	ParentHash       BlockHash       `json:"parent_hash"`
	Number           BlockNumber     `json:"number"`
	GasPrices        GasPrices       `json:"gas_prices"`
	Timestamp        uint64          `json:"timestamp"`
	StateRoot        Felt            `json:"state_root"`
	SequencerAddress ContractAddress `json:"sequencer_address"`
	Version          string          `json:"version"`
}

// BlockHashOrNumber identifies a block either way.
type BlockHashOrNumber struct {
	hash   BlockHash
	number BlockNumber
	byHash bool
}

// ByNumber identifies a block by height.
func ByNumber(n BlockNumber) BlockHashOrNumber {
	return BlockHashOrNumber{number: n}
}

// ByHash identifies a block by hash.
func ByHash(h BlockHash) BlockHashOrNumber {
	return BlockHashOrNumber{hash: h, byHash: true}
}

// ParseBlockID accepts a decimal height or a 0x-prefixed hash.
func ParseBlockID(s string) (BlockHashOrNumber, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		h, err := FeltFromHex(s)
		if err != nil {
			return BlockHashOrNumber{}, err
		}
		return ByHash(h), nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return BlockHashOrNumber{}, fmt.Errorf("block id %q: %w", s, err)
	}
	return ByNumber(n), nil
}

// Hash returns the hash and true for hash identifiers.
func (id BlockHashOrNumber) Hash() (BlockHash, bool) { return id.hash, id.byHash }

// Number returns the height and true for number identifiers.
func (id BlockHashOrNumber) Number() (BlockNumber, bool) { return id.number, !id.byHash }

func (id BlockHashOrNumber) String() string {
	if id.byHash {
		return id.hash.String()
	}
	return strconv.FormatUint(id.number, 10)
}
