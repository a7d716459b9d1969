// Package tables is the registry of every table the node persists. Adding a
// table means declaring it here and appending it to All.
package tables

import (
	"github.com/Giulio2002/chainkv"
	"github.com/Giulio2002/chainkv/codec"
	"github.com/Giulio2002/chainkv/primitives"
)

var (
	// Headers maps a block number to its header.
	Headers = chainkv.NewTable("Headers", codec.Uint64, codec.Message[primitives.Header]())

	// BlockHashes maps a block number to its hash.
	BlockHashes = chainkv.NewTable("BlockHashes", codec.Uint64, codec.Fixed[primitives.BlockHash]())

	// BlockNumbers maps a block hash back to its number.
	BlockNumbers = chainkv.NewTable("BlockNumbers", codec.Fixed[primitives.BlockHash](), codec.Uint64)

	// ChainConfigs maps the block a configuration activates at to the
	// configuration. The one in force at block n is the entry with the
	// greatest key <= n.
	ChainConfigs = chainkv.NewTable("ChainConfigs", codec.Uint64, codec.Message[primitives.CfgEnv]())

	// NonceChangeHistory lists, per block, the contracts whose nonce
	// changed and their new nonce.
	NonceChangeHistory = chainkv.NewDupTable("NonceChangeHistory", codec.Uint64, primitives.NonceChangeCodec)

	// ContractStorage holds the storage slots of each contract, sorted by
	// slot key.
	ContractStorage = chainkv.NewDupTable("ContractStorage", codec.Fixed[primitives.ContractAddress](), primitives.StorageEntryCodec)
)

// All lists the tables in creation order.
var All = []chainkv.TableInfo{
	Headers,
	BlockHashes,
	BlockNumbers,
	ChainConfigs,
	NonceChangeHistory,
	ContractStorage,
}

// Schema is the schema environments of the node are opened with.
var Schema = chainkv.MustSchema(All...)
