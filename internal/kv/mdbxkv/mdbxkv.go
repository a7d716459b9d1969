// Package mdbxkv is the libmdbx driver, backed by mdbx-go. Dup-sorted
// tables map directly onto MDBX_DUPSORT databases.
package mdbxkv

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/Giulio2002/chainkv/internal/kv"
)

// Name is the driver name used with kv.Open.
const Name = "mdbx"

func init() {
	kv.Register(Name, Open)
}

type env struct {
	env *mdbx.Env
	ro  bool

	// dbis caches committed handles. A transaction trusts only handles
	// published no later than the epoch it began at.
	mu    sync.RWMutex
	epoch uint64
	dbis  map[string]dbi
}

type dbi struct {
	handle mdbx.DBI
	kind   kv.Kind
	epoch  uint64
}

// Open opens (or, in read-write mode, creates) the environment at cfg.Path.
func Open(cfg kv.Config) (kv.Env, error) {
	menv, err := mdbx.NewEnv(mdbx.Label("chainkv"))
	if err != nil {
		return nil, err
	}
	fail := func(err error) (kv.Env, error) {
		menv.Close()
		return nil, err
	}

	maxDB := uint64(len(cfg.Tables))
	if maxDB < 1 {
		maxDB = 1
	}
	if err := menv.SetOption(mdbx.OptMaxDB, maxDB); err != nil {
		return fail(fmt.Errorf("set max dbs: %w", err))
	}
	if cfg.MaxReaders > 0 {
		if err := menv.SetOption(mdbx.OptMaxReaders, uint64(cfg.MaxReaders)); err != nil {
			return fail(fmt.Errorf("set max readers: %w", err))
		}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = -1
	}
	// Lower bound 0, current size left to mdbx, no shrinking.
	if err := menv.SetGeometry(0, -1, int(cfg.MaxSize), int(cfg.GrowthStep), -1, pageSize); err != nil {
		return fail(fmt.Errorf("set geometry: %w", err))
	}

	flags := uint(mdbx.Durable)
	if cfg.ReadOnly {
		flags = uint(mdbx.Readonly)
	}
	if cfg.NoReadahead {
		flags |= uint(mdbx.NoReadahead)
	}
	// Read transactions are not tied to the thread that began them.
	flags |= uint(mdbx.NoTLS)
	if err := menv.Open(cfg.Path, flags, 0644); err != nil {
		return fail(err)
	}

	e := &env{env: menv, ro: cfg.ReadOnly, dbis: make(map[string]dbi, len(cfg.Tables))}
	if err := e.openExisting(cfg.Tables); err != nil {
		return fail(err)
	}
	return e, nil
}

// openExisting caches handles of tables that already exist on disk.
func (e *env) openExisting(tables []kv.TableSpec) error {
	if len(tables) == 0 {
		return nil
	}
	tx, err := e.begin(uint(mdbx.Readonly))
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := tx.open(t.Name); err != nil && !errors.Is(err, kv.ErrUnknownTable) {
			tx.Abort()
			return err
		}
	}
	return tx.Commit()
}

func (e *env) BeginRO() (kv.Tx, error) {
	return e.begin(uint(mdbx.Readonly))
}

func (e *env) BeginRW() (kv.Tx, error) {
	if e.ro {
		return nil, kv.ErrReadOnly
	}
	// Write transactions are bound to the thread that started them.
	runtime.LockOSThread()
	t, err := e.begin(0)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	t.locked = true
	return t, nil
}

func (e *env) begin(flags uint) (*tx, error) {
	e.mu.RLock()
	epoch := e.epoch
	e.mu.RUnlock()
	mtx, err := e.env.BeginTxn(nil, flags)
	if err != nil {
		return nil, err
	}
	return &tx{env: e, txn: mtx, ro: flags&uint(mdbx.Readonly) != 0, epoch: epoch}, nil
}

func (e *env) Close() error {
	e.env.Close()
	return nil
}

func (e *env) lookup(name string, epoch uint64) (dbi, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.dbis[name]
	if !ok || d.epoch > epoch {
		return dbi{}, false
	}
	return d, true
}

func (e *env) publish(opened map[string]dbi) {
	if len(opened) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	for name, d := range opened {
		if _, ok := e.dbis[name]; ok {
			continue
		}
		d.epoch = e.epoch
		e.dbis[name] = d
	}
}
