package mdbxkv

import (
	"errors"
	"runtime"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/Giulio2002/chainkv/internal/kv"
)

type tx struct {
	env    *env
	txn    *mdbx.Txn
	ro     bool
	locked bool
	ended  bool
	epoch  uint64

	// handles opened by this transaction, shared once it commits
	opened  map[string]dbi
	cursors []*cursor
}

func (t *tx) open(name string) (dbi, error) {
	if d, ok := t.opened[name]; ok {
		return d, nil
	}
	if d, ok := t.env.lookup(name, t.epoch); ok {
		return d, nil
	}
	handle, err := t.txn.OpenDBISimple(name, 0)
	if err != nil {
		if mdbx.IsNotFound(err) {
			return dbi{}, kv.ErrUnknownTable
		}
		return dbi{}, err
	}
	flags, err := t.txn.Flags(handle)
	if err != nil {
		return dbi{}, err
	}
	d := dbi{handle: handle, kind: kindOf(flags)}
	t.remember(name, d)
	return d, nil
}

func (t *tx) remember(name string, d dbi) {
	if t.opened == nil {
		t.opened = make(map[string]dbi)
	}
	t.opened[name] = d
}

func kindOf(flags uint) kv.Kind {
	if flags&uint(mdbx.DupSort) != 0 {
		return kv.DupSort
	}
	return kv.Plain
}

func (t *tx) CreateTable(name string, kind kv.Kind) error {
	if t.ro {
		return kv.ErrReadOnly
	}
	if d, err := t.open(name); err == nil {
		if d.kind != kind {
			return kv.ErrTableKind
		}
		return nil
	} else if !errors.Is(err, kv.ErrUnknownTable) {
		return err
	}
	flags := uint(mdbx.Create)
	if kind == kv.DupSort {
		flags |= uint(mdbx.DupSort)
	}
	handle, err := t.txn.OpenDBISimple(name, flags)
	if err != nil {
		return mapErr(err)
	}
	t.remember(name, dbi{handle: handle, kind: kind})
	return nil
}

func (t *tx) Get(table string, key []byte) ([]byte, error) {
	d, err := t.open(table)
	if err != nil {
		return nil, err
	}
	v, err := t.txn.Get(d.handle, key)
	return v, mapErr(err)
}

func (t *tx) Put(table string, key, value []byte, flags kv.PutFlags) error {
	if t.ro {
		return kv.ErrReadOnly
	}
	d, err := t.open(table)
	if err != nil {
		return err
	}
	return mapErr(t.txn.Put(d.handle, key, value, putFlags(flags, d.kind)))
}

func (t *tx) Delete(table string, key, value []byte) (bool, error) {
	if t.ro {
		return false, kv.ErrReadOnly
	}
	d, err := t.open(table)
	if err != nil {
		return false, err
	}
	if d.kind == kv.Plain {
		value = nil
	}
	err = t.txn.Del(d.handle, key, value)
	if mdbx.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *tx) Entries(table string) (uint64, error) {
	d, err := t.open(table)
	if err != nil {
		return 0, err
	}
	st, err := t.txn.StatDBI(d.handle)
	if err != nil {
		return 0, err
	}
	return st.Entries, nil
}

func (t *tx) Cursor(table string) (kv.Cursor, error) {
	d, err := t.open(table)
	if err != nil {
		return nil, err
	}
	c, err := t.txn.OpenCursor(d.handle)
	if err != nil {
		return nil, err
	}
	cur := &cursor{tx: t, c: c, kind: d.kind}
	t.cursors = append(t.cursors, cur)
	return cur, nil
}

func (t *tx) Commit() error {
	if t.ended {
		return nil
	}
	t.closeCursors()
	_, err := t.txn.Commit()
	t.end()
	if err != nil {
		return err
	}
	t.env.publish(t.opened)
	return nil
}

func (t *tx) Abort() {
	if t.ended {
		return
	}
	t.closeCursors()
	t.txn.Abort()
	t.end()
}

func (t *tx) end() {
	t.ended = true
	if t.locked {
		t.locked = false
		runtime.UnlockOSThread()
	}
}

// mdbx cursors must be closed before their transaction ends.
func (t *tx) closeCursors() {
	for _, c := range t.cursors {
		c.Close()
	}
	t.cursors = nil
}

func putFlags(flags kv.PutFlags, kind kv.Kind) uint {
	var f uint
	if flags&kv.NoOverwrite != 0 {
		f |= uint(mdbx.NoOverwrite)
	}
	if flags&kv.NoDupData != 0 && kind == kv.DupSort {
		f |= uint(mdbx.NoDupData)
	}
	if f == 0 {
		f = uint(mdbx.Upsert)
	}
	return f
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case mdbx.IsNotFound(err):
		return kv.ErrNotFound
	case mdbx.IsKeyExists(err):
		return kv.ErrKeyExists
	default:
		return err
	}
}
