package chainkv

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Giulio2002/chainkv/internal/kv"
)

// Env is an open database environment. It owns the backend handle; every
// transaction borrows it and must end before Close returns.
//
// An Env is safe for concurrent use. Many read transactions may run at
// once, alongside at most one write transaction.
type Env struct {
	path    string
	mode    Mode
	opts    Options
	schema  *Schema
	kv      kv.Env
	lock    *writerLock
	log     *zap.SugaredLogger
	metrics *metrics

	// mu orders txWg.Add against Close.
	mu     sync.RWMutex
	closed bool
	txWg   sync.WaitGroup
	txID   atomic.Uint64
}

// Open opens the environment in directory path. In ReadWrite mode the
// directory is created if needed and an exclusive writer lock is taken, so
// a second ReadWrite Env on the same path fails with ErrWriterLocked.
// ReadOnly environments must already exist.
//
// Open does not create tables; call CreateTables on a new environment.
func Open(path string, mode Mode, schema *Schema, opts ...Option) (*Env, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if schema == nil {
		return nil, wrapError(CodeOpenEnv, errors.New("nil schema"))
	}
	if mode != ReadOnly && mode != ReadWrite {
		return nil, wrapError(CodeOpenEnv, fmt.Errorf("invalid mode %d", mode))
	}

	if mode == ReadWrite {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, wrapError(CodeOpenEnv, err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, wrapError(CodeOpenEnv, err)
	}

	var lock *writerLock
	if mode == ReadWrite {
		var err error
		if lock, err = tryLockWriter(path); err != nil {
			return nil, wrapError(CodeOpenEnv, err)
		}
	}

	backend, err := kv.Open(string(o.Backend), kv.Config{
		Path:        path,
		ReadOnly:    mode == ReadOnly,
		MaxSize:     o.MaxSize,
		GrowthStep:  o.GrowthStep,
		PageSize:    o.pageSize(),
		MaxReaders:  o.MaxReaders,
		NoReadahead: !o.Readahead,
		Tables:      schema.specs(),
	})
	if err != nil {
		lock.unlock()
		return nil, wrapError(CodeOpenEnv, err)
	}

	e := &Env{
		path:    path,
		mode:    mode,
		opts:    o,
		schema:  schema,
		kv:      backend,
		lock:    lock,
		log:     o.Logger.Sugar().With("backend", string(o.Backend), "path", path),
		metrics: newMetrics(o.Backend, path),
	}
	if err := e.metrics.register(o.Registerer); err != nil {
		backend.Close()
		lock.unlock()
		return nil, wrapError(CodeOpenEnv, err)
	}
	e.log.Infow("Opened environment", "mode", mode, "tables", schema.Len())
	return e, nil
}

// CreateTables declares every table of the schema in one write
// transaction. It is idempotent.
func (e *Env) CreateTables() error {
	if e.mode == ReadOnly {
		return wrapError(CodeCreateTable, ErrReadOnly)
	}
	tx, err := e.BeginWrite()
	if err != nil {
		return err
	}
	for _, t := range e.schema.tables {
		if err := tx.kv.CreateTable(t.Name(), t.Kind().driverKind()); err != nil {
			tx.Abort()
			return tableError(CodeCreateTable, t.Name(), nil, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.log.Infow("Created tables", "count", e.schema.Len())
	return nil
}

// BeginRead starts a read-only transaction on a snapshot of the latest
// committed state.
func (e *Env) BeginRead() (*Tx, error) {
	return e.begin(ReadOnly)
}

// BeginWrite starts the read-write transaction, blocking while another one
// is live. With the mdbx backend the calling goroutine is locked to its OS
// thread until the transaction ends, so the transaction must stay on the
// goroutine that began it.
func (e *Env) BeginWrite() (*Tx, error) {
	return e.begin(ReadWrite)
}

func (e *Env) begin(mode Mode) (*Tx, error) {
	code := CodeCreateROTx
	if mode == ReadWrite {
		code = CodeCreateRWTx
		if e.mode == ReadOnly {
			return nil, wrapError(code, ErrReadOnly)
		}
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, wrapError(code, ErrEnvClosed)
	}
	e.txWg.Add(1)
	e.mu.RUnlock()

	var (
		ktx kv.Tx
		err error
	)
	if mode == ReadWrite {
		ktx, err = e.kv.BeginRW()
	} else {
		ktx, err = e.kv.BeginRO()
	}
	if err != nil {
		e.txWg.Done()
		return nil, wrapError(code, err)
	}

	tx := newTx(e, ktx, mode)
	e.metrics.begin(mode)
	e.log.Debugw("Began transaction", "id", tx.id, "mode", mode)
	return tx, nil
}

// TxFunc is the callback type of View and Update.
type TxFunc func(tx *Tx) error

// View runs fn in a read transaction.
func (e *Env) View(fn TxFunc) error {
	return e.run(ReadOnly, fn)
}

// Update runs fn in a write transaction, committing when fn returns nil and
// aborting when it returns an error or panics.
func (e *Env) Update(fn TxFunc) error {
	return e.run(ReadWrite, fn)
}

func (e *Env) run(mode Mode, fn TxFunc) error {
	tx, err := e.begin(mode)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Abort()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}

// TableStat is the entry count of one table.
type TableStat struct {
	Name    string
	Kind    TableKind
	Entries uint64
}

// Stat counts the entries of every schema table in one read transaction.
// Tables not yet created are reported empty.
func (e *Env) Stat() ([]TableStat, error) {
	stats := make([]TableStat, 0, e.schema.Len())
	err := e.View(func(tx *Tx) error {
		for _, t := range e.schema.tables {
			n, err := tx.Entries(t)
			if err != nil && !errors.Is(err, ErrUnknownTable) {
				return err
			}
			stats = append(stats, TableStat{Name: t.Name(), Kind: t.Kind(), Entries: n})
		}
		return nil
	})
	return stats, err
}

// Close waits for open transactions to end, then closes the backend and
// releases the writer lock. Calling Close again is a no-op.
func (e *Env) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.txWg.Wait()

	err := e.kv.Close()
	if uerr := e.lock.unlock(); err == nil {
		err = uerr
	}
	e.metrics.unregister(e.opts.Registerer)
	e.log.Infow("Closed environment")
	return err
}

// Path returns the environment directory.
func (e *Env) Path() string { return e.path }

// Mode returns the access mode.
func (e *Env) Mode() Mode { return e.mode }

// Schema returns the tables this environment manages.
func (e *Env) Schema() *Schema { return e.schema }

// Backend returns the storage engine in use.
func (e *Env) Backend() Backend { return e.opts.Backend }
