package provider

import (
	"github.com/Giulio2002/chainkv"
	"github.com/Giulio2002/chainkv/primitives"
	"github.com/Giulio2002/chainkv/tables"
)

// InsertBlock stores a header and both directions of its hash index.
func InsertBlock(tx *chainkv.Tx, hash primitives.BlockHash, h primitives.Header) error {
	if err := chainkv.Put(tx, tables.Headers, h.Number, h); err != nil {
		return err
	}
	if err := chainkv.Put(tx, tables.BlockHashes, h.Number, hash); err != nil {
		return err
	}
	return chainkv.Put(tx, tables.BlockNumbers, hash, h.Number)
}

// SetChainConfig makes cfg the chain config from block activation on.
func SetChainConfig(tx *chainkv.Tx, activation primitives.BlockNumber, cfg primitives.CfgEnv) error {
	return chainkv.Put(tx, tables.ChainConfigs, activation, cfg)
}

// RecordNonceChange adds a nonce change to the history of block n.
func RecordNonceChange(tx *chainkv.Tx, n primitives.BlockNumber, change primitives.ContractNonceChange) error {
	return chainkv.Put(tx, tables.NonceChangeHistory, n, change)
}

// NonceChangesAt lists the nonce changes of block n, ordered by contract.
func NonceChangesAt(tx *chainkv.Tx, n primitives.BlockNumber) ([]primitives.ContractNonceChange, error) {
	cur, err := chainkv.OpenCursor(tx, tables.NonceChangeHistory)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	w, err := cur.WalkDup(n)
	if err != nil {
		return nil, err
	}
	var out []primitives.ContractNonceChange
	for w.Next() {
		out = append(out, w.Value())
	}
	return out, w.Err()
}

// SetStorage writes a storage slot, replacing its previous value.
func SetStorage(tx *chainkv.Tx, addr primitives.ContractAddress, key primitives.StorageKey, value primitives.StorageValue) error {
	cur, err := chainkv.OpenCursor(tx, tables.ContractStorage)
	if err != nil {
		return err
	}
	defer cur.Close()

	// Slots sort by key, so the old value (if any) is the first entry
	// at or after (addr, key || 0).
	e, err := cur.SeekBoth(addr, primitives.StorageEntry{Key: key})
	if err != nil {
		return err
	}
	if e != nil && e.Value.Key == key {
		if err := cur.Delete(); err != nil {
			return err
		}
	}
	if value.IsZero() {
		return nil
	}
	return cur.Upsert(addr, primitives.StorageEntry{Key: key, Value: value})
}

// StorageAt reads a storage slot. Unset slots read as zero.
func StorageAt(tx *chainkv.Tx, addr primitives.ContractAddress, key primitives.StorageKey) (primitives.StorageValue, error) {
	cur, err := chainkv.OpenCursor(tx, tables.ContractStorage)
	if err != nil {
		return primitives.StorageValue{}, err
	}
	defer cur.Close()
	e, err := cur.SeekBoth(addr, primitives.StorageEntry{Key: key})
	if err != nil || e == nil || e.Value.Key != key {
		return primitives.StorageValue{}, err
	}
	return e.Value.Value, nil
}
