// Package provider answers the node's questions about blocks and state
// from a chainkv environment opened with tables.Schema.
package provider

import (
	"errors"
	"fmt"

	"github.com/Giulio2002/chainkv"
	"github.com/Giulio2002/chainkv/primitives"
	"github.com/Giulio2002/chainkv/tables"
)

var (
	ErrBlockNotFound  = errors.New("block not found")
	ErrConfigNotFound = errors.New("no chain config active at block")
)

// BlockEnvProvider resolves the execution context of a block.
type BlockEnvProvider interface {
	// EnvAt returns the block environment of id.
	EnvAt(id primitives.BlockHashOrNumber) (primitives.BlockEnv, error)
	// ExecEnvAt returns the block environment of id and the chain config
	// in force at it.
	ExecEnvAt(id primitives.BlockHashOrNumber) (primitives.BlockEnv, primitives.CfgEnv, error)
}

// DB is the chainkv-backed provider.
type DB struct {
	env *chainkv.Env
}

var _ BlockEnvProvider = (*DB)(nil)

// New returns a provider reading from env.
func New(env *chainkv.Env) *DB {
	return &DB{env: env}
}

func (db *DB) EnvAt(id primitives.BlockHashOrNumber) (env primitives.BlockEnv, err error) {
	err = db.env.View(func(tx *chainkv.Tx) error {
		h, err := headerAt(tx, id)
		if err != nil {
			return err
		}
		env = primitives.BlockEnvFromHeader(&h)
		return nil
	})
	return env, err
}

func (db *DB) ExecEnvAt(id primitives.BlockHashOrNumber) (env primitives.BlockEnv, cfg primitives.CfgEnv, err error) {
	err = db.env.View(func(tx *chainkv.Tx) error {
		h, err := headerAt(tx, id)
		if err != nil {
			return err
		}
		if cfg, err = configAt(tx, h.Number); err != nil {
			return err
		}
		env = primitives.BlockEnvFromHeader(&h)
		return nil
	})
	return env, cfg, err
}

// BlockNumber resolves id to a block number that has a header.
func BlockNumber(tx *chainkv.Tx, id primitives.BlockHashOrNumber) (primitives.BlockNumber, error) {
	if hash, ok := id.Hash(); ok {
		n, found, err := chainkv.Get(tx, tables.BlockNumbers, hash)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("%w: %v", ErrBlockNotFound, id)
		}
		return n, nil
	}
	n, _ := id.Number()
	return n, nil
}

func headerAt(tx *chainkv.Tx, id primitives.BlockHashOrNumber) (primitives.Header, error) {
	n, err := BlockNumber(tx, id)
	if err != nil {
		return primitives.Header{}, err
	}
	h, found, err := chainkv.Get(tx, tables.Headers, n)
	if err != nil {
		return h, err
	}
	if !found {
		return h, fmt.Errorf("%w: %v", ErrBlockNotFound, id)
	}
	return h, nil
}

// configAt finds the config with the greatest activation block <= n.
func configAt(tx *chainkv.Tx, n primitives.BlockNumber) (primitives.CfgEnv, error) {
	cur, err := chainkv.OpenCursor(tx, tables.ChainConfigs)
	if err != nil {
		return primitives.CfgEnv{}, err
	}
	defer cur.Close()

	e, err := cur.Seek(n)
	if err != nil {
		return primitives.CfgEnv{}, err
	}
	switch {
	case e == nil:
		// every activation is <= n
		e, err = cur.Last()
	case e.Key > n:
		e, err = cur.Prev()
	}
	if err != nil {
		return primitives.CfgEnv{}, err
	}
	if e == nil || e.Key > n {
		return primitives.CfgEnv{}, fmt.Errorf("%w %d", ErrConfigNotFound, n)
	}
	return e.Value, nil
}
