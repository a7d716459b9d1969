package mdbxkv

import (
	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/Giulio2002/chainkv/internal/kv"
)

type cursor struct {
	tx     *tx
	c      *mdbx.Cursor
	kind   kv.Kind
	closed bool
}

var ops = [...]uint{
	kv.First:        uint(mdbx.First),
	kv.Last:         uint(mdbx.Last),
	kv.Next:         uint(mdbx.Next),
	kv.Prev:         uint(mdbx.Prev),
	kv.Current:      uint(mdbx.GetCurrent),
	kv.Set:          uint(mdbx.SetKey),
	kv.SetRange:     uint(mdbx.SetRange),
	kv.GetBoth:      uint(mdbx.GetBoth),
	kv.GetBothRange: uint(mdbx.GetBothRange),
	kv.NextDup:      uint(mdbx.NextDup),
	kv.PrevDup:      uint(mdbx.PrevDup),
	kv.NextNoDup:    uint(mdbx.NextNoDup),
	kv.FirstDup:     uint(mdbx.FirstDup),
	kv.LastDup:      uint(mdbx.LastDup),
}

func (c *cursor) Get(key, value []byte, op kv.Op) ([]byte, []byte, error) {
	if c.kind == kv.Plain {
		switch op {
		case kv.GetBoth, kv.GetBothRange:
			return c.plainBoth(key, value, op)
		case kv.NextDup, kv.PrevDup:
			// single-valued keys have no further duplicates
			if _, _, err := c.c.Get(nil, nil, uint(mdbx.GetCurrent)); err != nil {
				return nil, nil, mapErr(err)
			}
			return nil, nil, kv.ErrNotFound
		case kv.NextNoDup:
			op = kv.Next
		case kv.FirstDup, kv.LastDup:
			op = kv.Current
		}
	}
	k, v, err := c.c.Get(key, value, ops[op])
	if err != nil {
		return nil, nil, mapErr(err)
	}
	if op == kv.GetBoth || op == kv.GetBothRange {
		// mdbx leaves the key out for these ops
		k = key
	}
	return k, v, nil
}

func (c *cursor) plainBoth(key, value []byte, op kv.Op) ([]byte, []byte, error) {
	k, v, err := c.c.Get(key, nil, uint(mdbx.SetKey))
	if err != nil {
		return nil, nil, mapErr(err)
	}
	cmp := compare(v, value)
	if cmp == 0 || (op == kv.GetBothRange && cmp > 0) {
		return k, v, nil
	}
	return nil, nil, kv.ErrNotFound
}

func compare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func (c *cursor) Put(key, value []byte, flags kv.PutFlags) error {
	if c.tx.ro {
		return kv.ErrReadOnly
	}
	return mapErr(c.c.Put(key, value, putFlags(flags, c.kind)))
}

func (c *cursor) Del(allDups bool) error {
	if c.tx.ro {
		return kv.ErrReadOnly
	}
	flags := uint(mdbx.Current)
	if allDups && c.kind == kv.DupSort {
		flags = uint(mdbx.AllDups)
	}
	return mapErr(c.c.Del(flags))
}

func (c *cursor) Count() (uint64, error) {
	if c.kind == kv.Plain {
		if _, _, err := c.c.Get(nil, nil, uint(mdbx.GetCurrent)); err != nil {
			return 0, mapErr(err)
		}
		return 1, nil
	}
	n, err := c.c.Count()
	return n, mapErr(err)
}

func (c *cursor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.c.Close()
}
