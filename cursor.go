package chainkv

import (
	"errors"

	"github.com/Giulio2002/chainkv/internal/kv"
)

// Entry is a decoded key/value pair.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Cursor is a typed position in one table. It belongs to the transaction
// that opened it and stops working when that transaction ends.
//
// Navigation methods return nil, nil when there is no such entry.
type Cursor[K, V any] struct {
	tx    *Tx
	table *Table[K, V]
	c     kv.Cursor

	closed     bool
	positioned bool
	// deleted is set between Delete and the next move.
	deleted bool
}

// OpenCursor opens a cursor on t. The cursor starts unpositioned.
func OpenCursor[K, V any](tx *Tx, t *Table[K, V]) (*Cursor[K, V], error) {
	if err := tx.usable(t); err != nil {
		return nil, tableError(CodeRead, t.name, nil, err)
	}
	c, err := tx.kv.Cursor(t.name)
	if err != nil {
		return nil, tableError(CodeRead, t.name, nil, err)
	}
	cur := &Cursor[K, V]{tx: tx, table: t, c: c}
	tx.cursors = append(tx.cursors, cur)
	return cur, nil
}

// Table returns the table the cursor walks.
func (c *Cursor[K, V]) Table() *Table[K, V] { return c.table }

func (c *Cursor[K, V]) valid() error {
	if c.tx.done {
		return ErrTxDone
	}
	if c.closed {
		return ErrCursorClosed
	}
	return nil
}

// Close releases the cursor. Closing twice is a no-op.
func (c *Cursor[K, V]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.c.Close()
}

// invalidate is called by the transaction when it ends.
func (c *Cursor[K, V]) invalidate() {
	c.Close()
}

// First moves to the first entry of the table.
func (c *Cursor[K, V]) First() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.First)
}

// Last moves to the last entry of the table.
func (c *Cursor[K, V]) Last() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.Last)
}

// Next moves to the next entry, or to the first one when unpositioned.
func (c *Cursor[K, V]) Next() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.Next)
}

// Prev moves to the previous entry, or to the last one when unpositioned.
func (c *Cursor[K, V]) Prev() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.Prev)
}

// Current returns the entry under the cursor without moving.
func (c *Cursor[K, V]) Current() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.Current)
}

// Seek moves to the first entry whose key is >= key.
func (c *Cursor[K, V]) Seek(key K) (*Entry[K, V], error) {
	return c.get(c.table.key.Encode(key), nil, kv.SetRange)
}

// SeekExact moves to key, and for dup-sorted tables to its first value.
func (c *Cursor[K, V]) SeekExact(key K) (*Entry[K, V], error) {
	return c.get(c.table.key.Encode(key), nil, kv.Set)
}

// SeekBoth moves to the first value >= value stored under exactly key.
func (c *Cursor[K, V]) SeekBoth(key K, value V) (*Entry[K, V], error) {
	return c.get(c.table.key.Encode(key), c.table.value.Encode(value), kv.GetBothRange)
}

// NextDup moves to the next value of the current key.
func (c *Cursor[K, V]) NextDup() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.NextDup)
}

// PrevDup moves to the previous value of the current key.
func (c *Cursor[K, V]) PrevDup() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.PrevDup)
}

// NextNoDup moves to the first value of the next key.
func (c *Cursor[K, V]) NextNoDup() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.NextNoDup)
}

// FirstDup moves to the first value of the current key.
func (c *Cursor[K, V]) FirstDup() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.FirstDup)
}

// LastDup moves to the last value of the current key.
func (c *Cursor[K, V]) LastDup() (*Entry[K, V], error) {
	return c.get(nil, nil, kv.LastDup)
}

// DupCount returns the number of values of the current key; always 1 for
// plain tables.
func (c *Cursor[K, V]) DupCount() (uint64, error) {
	if err := c.valid(); err != nil {
		return 0, tableError(CodeRead, c.table.name, nil, err)
	}
	if !c.positioned || c.deleted {
		return 0, tableError(CodeRead, c.table.name, nil, ErrNotPositioned)
	}
	n, err := c.c.Count()
	if err != nil {
		return 0, tableError(CodeRead, c.table.name, nil, err)
	}
	return n, nil
}

// keepsPosition reports whether a failed op leaves the cursor where it was.
func keepsPosition(op kv.Op) bool {
	switch op {
	case kv.Current, kv.NextDup, kv.PrevDup, kv.FirstDup, kv.LastDup:
		return true
	}
	return false
}

func (c *Cursor[K, V]) get(key, value []byte, op kv.Op) (*Entry[K, V], error) {
	if err := c.valid(); err != nil {
		return nil, tableError(CodeRead, c.table.name, key, err)
	}
	if keepsPosition(op) && (!c.positioned || c.deleted) {
		return nil, nil
	}
	c.deleted = false

	k, v, err := c.c.Get(key, value, op)
	if errors.Is(err, kv.ErrNotFound) || errors.Is(err, kv.ErrUnpositioned) {
		if !keepsPosition(op) {
			c.positioned = false
		}
		return nil, nil
	}
	if err != nil {
		return nil, tableError(CodeRead, c.table.name, key, err)
	}
	c.positioned = true
	return c.decode(k, v)
}

func (c *Cursor[K, V]) decode(k, v []byte) (*Entry[K, V], error) {
	key, err := c.table.decodeKey(k)
	if err != nil {
		return nil, err
	}
	value, err := c.table.decodeValue(k, v)
	if err != nil {
		return nil, err
	}
	return &Entry[K, V]{Key: key, Value: value}, nil
}
