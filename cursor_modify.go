package chainkv

import (
	"errors"

	"github.com/Giulio2002/chainkv/internal/kv"
)

func (c *Cursor[K, V]) writable(key []byte) error {
	if err := c.valid(); err != nil {
		return tableError(CodeWrite, c.table.name, key, err)
	}
	if c.tx.mode == ReadOnly {
		return tableError(CodeWrite, c.table.name, key, ErrReadOnly)
	}
	return nil
}

// Insert adds (key, value) and moves onto it. It fails with ErrKeyExists
// if a plain table already has key, or a dup-sorted table already has the
// pair; the cursor is then left on the existing entry.
func (c *Cursor[K, V]) Insert(key K, value V) error {
	k, v := c.table.key.Encode(key), c.table.value.Encode(value)
	if err := c.writable(k); err != nil {
		return err
	}
	flags, exists := kv.NoOverwrite, kv.Set
	if c.table.kind == DupSort {
		flags, exists = kv.NoDupData, kv.GetBoth
	}
	c.deleted = false

	err := c.c.Put(k, v, flags)
	if errors.Is(err, kv.ErrKeyExists) {
		_, _, serr := c.c.Get(k, v, exists)
		c.positioned = serr == nil
		return tableError(CodeWrite, c.table.name, k, ErrKeyExists)
	}
	if err != nil {
		return tableError(CodeWrite, c.table.name, k, err)
	}
	c.positioned = true
	return nil
}

// Upsert stores (key, value) and moves onto it. Plain tables overwrite;
// dup-sorted tables add the pair.
func (c *Cursor[K, V]) Upsert(key K, value V) error {
	k := c.table.key.Encode(key)
	if err := c.writable(k); err != nil {
		return err
	}
	c.deleted = false
	if err := c.c.Put(k, c.table.value.Encode(value), kv.Upsert); err != nil {
		return tableError(CodeWrite, c.table.name, k, err)
	}
	c.positioned = true
	return nil
}

// Delete removes the entry under the cursor. The following Next returns
// the entry after the removed one.
func (c *Cursor[K, V]) Delete() error {
	return c.del(false)
}

// DeleteDups removes every value of the current key. On plain tables it is
// the same as Delete.
func (c *Cursor[K, V]) DeleteDups() error {
	return c.del(true)
}

func (c *Cursor[K, V]) del(all bool) error {
	if err := c.writable(nil); err != nil {
		return err
	}
	if !c.positioned || c.deleted {
		return tableError(CodeWrite, c.table.name, nil, ErrNotPositioned)
	}
	if err := c.c.Del(all); err != nil {
		return tableError(CodeWrite, c.table.name, nil, err)
	}
	c.deleted = true
	return nil
}
