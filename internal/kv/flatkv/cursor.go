package flatkv

import (
	"bytes"

	"github.com/Giulio2002/chainkv/internal/kv"
)

type cursor struct {
	tx *tx
	tb table

	it  Iter
	gen uint64
	// pos is the table-relative raw key under the cursor, nil when
	// unpositioned. atPos reports whether it sits on pos.
	pos    []byte
	atPos  bool
	closed bool
}

func (c *cursor) iter() (Iter, error) {
	if c.it != nil && c.gen == c.tx.gen {
		return c.it, nil
	}
	if c.it != nil {
		c.it.Close()
		c.it = nil
	}
	it, err := c.tx.r.NewIter(c.tb.ns.prefix, c.tb.ns.upper)
	if err != nil {
		return nil, err
	}
	c.it, c.gen, c.atPos = it, c.tx.gen, false
	return it, nil
}

// look reads the entry the iterator is on without moving the cursor.
func (c *cursor) look(ok bool) (raw, k, v []byte, err error) {
	if !ok {
		if err := c.it.Error(); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, nil, kv.ErrNotFound
	}
	raw = bytes.Clone(c.tb.ns.strip(c.it.Key()))
	if c.tb.kind == kv.Plain {
		return raw, raw, bytes.Clone(c.it.Value()), nil
	}
	k, v, valid := splitDup(raw)
	if !valid {
		return nil, nil, nil, errCorrupt
	}
	return raw, k, v, nil
}

// land moves the cursor onto the iterator's entry, or unpositions it.
func (c *cursor) land(ok bool) ([]byte, []byte, error) {
	raw, k, v, err := c.look(ok)
	if err != nil {
		c.pos, c.atPos = nil, false
		return nil, nil, err
	}
	c.pos, c.atPos = raw, true
	return k, v, nil
}

// within positions on the iterator's entry only if its raw key starts
// with prefix; otherwise the cursor keeps its position.
func (c *cursor) within(ok bool, prefix []byte) ([]byte, []byte, error) {
	raw, k, v, err := c.look(ok)
	if err != nil {
		c.atPos = false
		return nil, nil, err
	}
	if !bytes.HasPrefix(raw, prefix) {
		c.atPos = false
		return nil, nil, kv.ErrNotFound
	}
	c.pos, c.atPos = raw, true
	return k, v, nil
}

func (c *cursor) Get(key, value []byte, op kv.Op) ([]byte, []byte, error) {
	if c.closed {
		return nil, nil, kv.ErrUnpositioned
	}
	it, err := c.iter()
	if err != nil {
		return nil, nil, err
	}
	dup := c.tb.kind == kv.DupSort
	ns := c.tb.ns

	switch op {
	case kv.First:
		return c.land(it.First())
	case kv.Last:
		return c.land(it.Last())
	case kv.Next:
		return c.next(it)
	case kv.Prev:
		if c.pos == nil {
			return c.land(it.Last())
		}
		if c.atPos {
			return c.land(it.Prev())
		}
		return c.land(it.SeekLT(ns.key(c.pos)))
	case kv.Current:
		return c.current()
	case kv.SetRange:
		if dup {
			return c.land(it.SeekGE(ns.key(appendEscaped(nil, key))))
		}
		return c.land(it.SeekGE(ns.key(key)))
	case kv.Set:
		if dup {
			escaped := appendEscaped(nil, key)
			c.pos = nil
			return c.within(it.SeekGE(ns.key(escaped)), escaped)
		}
		return c.exact(key, value, false)
	case kv.GetBoth:
		if dup {
			return c.exact(dupKey(key, value), nil, false)
		}
		return c.exact(key, value, true)
	case kv.GetBothRange:
		if dup {
			c.pos = nil
			return c.within(it.SeekGE(ns.key(dupKey(key, value))), appendEscaped(nil, key))
		}
		k, v, err := c.exact(key, nil, false)
		if err != nil {
			return nil, nil, err
		}
		if bytes.Compare(v, value) < 0 {
			c.pos, c.atPos = nil, false
			return nil, nil, kv.ErrNotFound
		}
		return k, v, nil
	}

	// Remaining ops act on the current key.
	if c.pos == nil {
		if op == kv.NextNoDup {
			return c.land(it.First())
		}
		return nil, nil, kv.ErrUnpositioned
	}
	if !dup {
		switch op {
		case kv.NextNoDup:
			return c.next(it)
		case kv.FirstDup, kv.LastDup:
			return c.current()
		default:
			return nil, nil, kv.ErrNotFound
		}
	}
	cur, _, ok := splitDup(c.pos)
	if !ok {
		return nil, nil, errCorrupt
	}
	escaped := appendEscaped(nil, cur)
	switch op {
	case kv.NextDup:
		if c.atPos {
			return c.within(it.Next(), escaped)
		}
		ok := it.SeekGE(ns.key(c.pos))
		if ok && bytes.Equal(ns.strip(it.Key()), c.pos) {
			ok = it.Next()
		}
		return c.within(ok, escaped)
	case kv.PrevDup:
		if c.atPos {
			return c.within(it.Prev(), escaped)
		}
		return c.within(it.SeekLT(ns.key(c.pos)), escaped)
	case kv.NextNoDup:
		return c.land(it.SeekGE(ns.key(successor(escaped))))
	case kv.FirstDup:
		return c.within(it.SeekGE(ns.key(escaped)), escaped)
	case kv.LastDup:
		return c.within(it.SeekLT(ns.key(successor(escaped))), escaped)
	}
	return nil, nil, kv.ErrNotFound
}

func (c *cursor) next(it Iter) ([]byte, []byte, error) {
	if c.pos == nil {
		return c.land(it.First())
	}
	if c.atPos {
		return c.land(it.Next())
	}
	// The entry at pos may be gone; the first key >= pos is then already
	// its successor.
	ok := it.SeekGE(c.tb.ns.key(c.pos))
	if ok && bytes.Equal(c.tb.ns.strip(it.Key()), c.pos) {
		ok = it.Next()
	}
	return c.land(ok)
}

// exact positions on raw if it is stored. For plain tables with want set,
// the stored value must also equal value.
func (c *cursor) exact(raw, value []byte, want bool) ([]byte, []byte, error) {
	v, err := c.tx.get(c.tb.ns.key(raw))
	if err == nil && want && !bytes.Equal(v, value) {
		err = kv.ErrNotFound
	}
	if err != nil {
		c.pos, c.atPos = nil, false
		return nil, nil, err
	}
	c.pos, c.atPos = bytes.Clone(raw), false
	if c.tb.kind == kv.Plain {
		return c.pos, v, nil
	}
	k, dv, _ := splitDup(c.pos)
	return k, dv, nil
}

func (c *cursor) current() ([]byte, []byte, error) {
	if c.pos == nil {
		return nil, nil, kv.ErrNotFound
	}
	v, err := c.tx.get(c.tb.ns.key(c.pos))
	if err != nil {
		return nil, nil, err
	}
	if c.tb.kind == kv.Plain {
		return c.pos, v, nil
	}
	k, dv, ok := splitDup(c.pos)
	if !ok {
		return nil, nil, errCorrupt
	}
	return k, dv, nil
}

func (c *cursor) Put(key, value []byte, flags kv.PutFlags) error {
	if err := c.tx.writable(); err != nil {
		return err
	}
	raw, err := c.tx.put(c.tb, key, value, flags)
	if err != nil {
		return err
	}
	c.pos, c.atPos = raw, false
	return nil
}

func (c *cursor) Del(allDups bool) error {
	if err := c.tx.writable(); err != nil {
		return err
	}
	if c.pos == nil {
		return kv.ErrUnpositioned
	}
	if allDups && c.tb.kind == kv.DupSort {
		key, _, ok := splitDup(c.pos)
		if !ok {
			return errCorrupt
		}
		_, err := c.tx.deleteAll(c.tb.ns, key)
		if err == nil {
			// park after the last value so Next moves to the next key
			c.pos = successor(appendEscaped(nil, key))
		}
		return err
	}
	_, err := c.tx.deleteRaw(c.tb.ns.key(c.pos))
	return err
}

func (c *cursor) Count() (uint64, error) {
	if c.pos == nil {
		return 0, kv.ErrUnpositioned
	}
	if c.tb.kind == kv.Plain {
		return 1, nil
	}
	key, _, ok := splitDup(c.pos)
	if !ok {
		return 0, errCorrupt
	}
	escaped := appendEscaped(nil, key)
	it, err := c.tx.r.NewIter(c.tb.ns.key(escaped), c.tb.ns.key(successor(escaped)))
	if err != nil {
		return 0, err
	}
	defer it.Close()
	var n uint64
	for ok := it.First(); ok; ok = it.Next() {
		n++
	}
	return n, it.Error()
}

func (c *cursor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.it != nil {
		c.it.Close()
		c.it = nil
	}
}
