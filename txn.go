package chainkv

import (
	"errors"
	"time"

	"github.com/Giulio2002/chainkv/internal/kv"
)

// Tx is a transaction. Read transactions see the snapshot taken when they
// began; the write transaction also sees its own writes. A Tx is not safe
// for concurrent use and must end with exactly one Commit or Abort, which
// also closes its cursors.
type Tx struct {
	env   *Env
	kv    kv.Tx
	mode  Mode
	id    uint64
	began time.Time
	done  bool

	cursors []interface{ invalidate() }
}

func newTx(env *Env, ktx kv.Tx, mode Mode) *Tx {
	return &Tx{
		env:   env,
		kv:    ktx,
		mode:  mode,
		id:    env.txID.Add(1),
		began: time.Now(),
	}
}

// ID is unique among the transactions of one Env.
func (tx *Tx) ID() uint64 { return tx.id }

// ReadOnly reports whether tx is a read transaction.
func (tx *Tx) ReadOnly() bool { return tx.mode == ReadOnly }

// Env returns the environment that owns tx.
func (tx *Tx) Env() *Env { return tx.env }

// Commit makes the writes of tx durable and ends it. Committing a read
// transaction just releases its snapshot. The transaction is ended even
// when Commit fails.
func (tx *Tx) Commit() error {
	if tx.done {
		return wrapError(CodeCommit, ErrTxDone)
	}
	tx.closeCursors()
	start := time.Now()
	err := tx.kv.Commit()
	tx.finish()

	if tx.mode == ReadWrite {
		took := time.Since(start)
		tx.env.metrics.commit(took, err)
		if held := time.Since(tx.began); err == nil && held > SlowWriteTx {
			tx.env.log.Warnw("Slow write transaction", "id", tx.id, "held", held, "commit", took)
		}
	}
	if err != nil {
		tx.env.log.Errorw("Commit failed", "id", tx.id, "err", err)
		return wrapError(CodeCommit, err)
	}
	tx.env.log.Debugw("Committed transaction", "id", tx.id, "mode", tx.mode)
	return nil
}

// Abort discards tx. Aborting an ended transaction does nothing.
func (tx *Tx) Abort() {
	if tx.done {
		return
	}
	tx.closeCursors()
	tx.kv.Abort()
	tx.finish()
	tx.env.log.Debugw("Aborted transaction", "id", tx.id, "mode", tx.mode)
}

func (tx *Tx) finish() {
	tx.done = true
	tx.env.metrics.end(tx.mode)
	tx.env.txWg.Done()
}

func (tx *Tx) closeCursors() {
	for _, c := range tx.cursors {
		c.invalidate()
	}
	tx.cursors = nil
}

// usable reports why table t cannot be used in tx, if it cannot.
func (tx *Tx) usable(t TableInfo) error {
	if tx.done {
		return ErrTxDone
	}
	return tx.env.schema.check(t)
}

func (tx *Tx) writable(t TableInfo) error {
	if err := tx.usable(t); err != nil {
		return err
	}
	if tx.mode == ReadOnly {
		return ErrReadOnly
	}
	return nil
}

// Entries returns the number of entries in t, counting every value of a
// dup-sorted key.
func (tx *Tx) Entries(t TableInfo) (uint64, error) {
	if err := tx.usable(t); err != nil {
		return 0, tableError(CodeRead, t.Name(), nil, err)
	}
	n, err := tx.kv.Entries(t.Name())
	if err != nil {
		return 0, tableError(CodeRead, t.Name(), nil, err)
	}
	return n, nil
}

// Get returns the value stored under key, or for dup-sorted tables the
// smallest one. A missing key is reported by ok == false, not an error.
func Get[K, V any](tx *Tx, t *Table[K, V], key K) (value V, ok bool, err error) {
	if err := tx.usable(t); err != nil {
		return value, false, tableError(CodeRead, t.name, nil, err)
	}
	k := t.key.Encode(key)
	raw, err := tx.kv.Get(t.name, k)
	if errors.Is(err, kv.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, tableError(CodeRead, t.name, k, err)
	}
	value, err = t.decodeValue(k, raw)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Has reports whether key has a value.
func Has[K, V any](tx *Tx, t *Table[K, V], key K) (bool, error) {
	if err := tx.usable(t); err != nil {
		return false, tableError(CodeRead, t.name, nil, err)
	}
	k := t.key.Encode(key)
	_, err := tx.kv.Get(t.name, k)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, tableError(CodeRead, t.name, k, err)
	}
	return true, nil
}

// Put stores value under key. Plain tables overwrite any previous value;
// dup-sorted tables add the pair and keep the key's other values.
func Put[K, V any](tx *Tx, t *Table[K, V], key K, value V) error {
	k := t.key.Encode(key)
	if err := tx.writable(t); err != nil {
		return tableError(CodeWrite, t.name, k, err)
	}
	if err := tx.kv.Put(t.name, k, t.value.Encode(value), kv.Upsert); err != nil {
		return tableError(CodeWrite, t.name, k, err)
	}
	return nil
}

// Delete removes key. For dup-sorted tables a non-nil value removes only
// that pair and nil removes every value of key; plain tables ignore value.
// It reports whether anything was removed.
func Delete[K, V any](tx *Tx, t *Table[K, V], key K, value *V) (bool, error) {
	k := t.key.Encode(key)
	if err := tx.writable(t); err != nil {
		return false, tableError(CodeWrite, t.name, k, err)
	}
	var v []byte
	if value != nil && t.kind == DupSort {
		if v = t.value.Encode(*value); v == nil {
			v = []byte{}
		}
	}
	deleted, err := tx.kv.Delete(t.name, k, v)
	if err != nil {
		return false, tableError(CodeWrite, t.name, k, err)
	}
	return deleted, nil
}
