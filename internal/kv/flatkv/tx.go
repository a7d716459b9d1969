package flatkv

import (
	"bytes"
	"errors"

	"github.com/Giulio2002/chainkv/internal/kv"
)

type tx struct {
	env *env
	r   Reader
	w   Writer // nil for read-only transactions

	// epoch is the catalog cache epoch at begin.
	epoch uint64
	// gen counts writes; cursors rebuild their iterator when it moves.
	gen     uint64
	created map[string]kv.Kind
	known   map[string]kv.Kind
	cursors []*cursor
	ended   bool
}

type table struct {
	ns   namespace
	kind kv.Kind
}

func (t *tx) table(name string) (table, error) {
	if k, ok := t.created[name]; ok {
		return table{ns: newNamespace(name), kind: k}, nil
	}
	if k, ok := t.known[name]; ok {
		return table{ns: newNamespace(name), kind: k}, nil
	}
	k, ok := t.env.kind(name, t.epoch)
	if !ok {
		var err error
		if k, err = readKind(t.r, name); err != nil {
			return table{}, err
		}
		if t.known == nil {
			t.known = make(map[string]kv.Kind)
		}
		t.known[name] = k
	}
	return table{ns: newNamespace(name), kind: k}, nil
}

func (t *tx) writable() error {
	if t.w == nil {
		return kv.ErrReadOnly
	}
	return nil
}

func (t *tx) CreateTable(name string, kind kv.Kind) error {
	if err := t.writable(); err != nil {
		return err
	}
	tb, err := t.table(name)
	if err == nil {
		if tb.kind != kind {
			return kv.ErrTableKind
		}
		return nil
	}
	if !errors.Is(err, kv.ErrUnknownTable) {
		return err
	}
	if err := t.w.Set(catalog.key([]byte(name)), []byte{byte(kind)}); err != nil {
		return err
	}
	if t.created == nil {
		t.created = make(map[string]kv.Kind)
	}
	t.created[name] = kind
	t.gen++
	return nil
}

func (t *tx) Get(name string, key []byte) ([]byte, error) {
	tb, err := t.table(name)
	if err != nil {
		return nil, err
	}
	if tb.kind == kv.Plain {
		return t.get(tb.ns.key(key))
	}
	_, v, err := t.firstUnder(tb.ns, appendEscaped(nil, key))
	return v, err
}

func (t *tx) get(key []byte) ([]byte, error) {
	v, err := t.r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, kv.ErrNotFound
	}
	return v, err
}

func (t *tx) has(key []byte) (bool, error) {
	_, err := t.get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// firstUnder returns the first dup-sort pair whose composite starts with
// the escaped key.
func (t *tx) firstUnder(ns namespace, escaped []byte) (key, value []byte, err error) {
	it, err := t.r.NewIter(ns.key(escaped), ns.key(successor(escaped)))
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.First() {
		if err := it.Error(); err != nil {
			return nil, nil, err
		}
		return nil, nil, kv.ErrNotFound
	}
	k, v, ok := splitDup(ns.strip(it.Key()))
	if !ok {
		return nil, nil, errCorrupt
	}
	return k, bytes.Clone(v), nil
}

var errCorrupt = errors.New("flatkv: malformed dup-sort entry")

func (t *tx) Put(name string, key, value []byte, flags kv.PutFlags) error {
	if err := t.writable(); err != nil {
		return err
	}
	tb, err := t.table(name)
	if err != nil {
		return err
	}
	_, err = t.put(tb, key, value, flags)
	return err
}

// put stores the entry and returns its table-relative raw key.
func (t *tx) put(tb table, key, value []byte, flags kv.PutFlags) ([]byte, error) {
	if tb.kind == kv.Plain {
		if flags&kv.NoOverwrite != 0 {
			exists, err := t.has(tb.ns.key(key))
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, kv.ErrKeyExists
			}
		}
		if err := t.w.Set(tb.ns.key(key), value); err != nil {
			return nil, err
		}
		t.gen++
		return bytes.Clone(key), nil
	}

	raw := dupKey(key, value)
	if flags&kv.NoOverwrite != 0 {
		_, _, err := t.firstUnder(tb.ns, appendEscaped(nil, key))
		if err == nil {
			return nil, kv.ErrKeyExists
		}
		if !errors.Is(err, kv.ErrNotFound) {
			return nil, err
		}
	}
	if flags&kv.NoDupData != 0 {
		exists, err := t.has(tb.ns.key(raw))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, kv.ErrKeyExists
		}
	}
	if err := t.w.Set(tb.ns.key(raw), []byte{}); err != nil {
		return nil, err
	}
	t.gen++
	return raw, nil
}

func (t *tx) Delete(name string, key, value []byte) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	tb, err := t.table(name)
	if err != nil {
		return false, err
	}
	switch {
	case tb.kind == kv.Plain:
		return t.deleteRaw(tb.ns.key(key))
	case value != nil:
		return t.deleteRaw(tb.ns.key(dupKey(key, value)))
	default:
		return t.deleteAll(tb.ns, key)
	}
}

func (t *tx) deleteRaw(full []byte) (bool, error) {
	exists, err := t.has(full)
	if err != nil || !exists {
		return false, err
	}
	if err := t.w.Delete(full); err != nil {
		return false, err
	}
	t.gen++
	return true, nil
}

func (t *tx) deleteAll(ns namespace, key []byte) (bool, error) {
	escaped := appendEscaped(nil, key)
	it, err := t.r.NewIter(ns.key(escaped), ns.key(successor(escaped)))
	if err != nil {
		return false, err
	}
	var victims [][]byte
	for ok := it.First(); ok; ok = it.Next() {
		victims = append(victims, bytes.Clone(it.Key()))
	}
	err = it.Error()
	it.Close()
	if err != nil {
		return false, err
	}
	for _, k := range victims {
		if err := t.w.Delete(k); err != nil {
			return false, err
		}
	}
	if len(victims) > 0 {
		t.gen++
	}
	return len(victims) > 0, nil
}

func (t *tx) Entries(name string) (uint64, error) {
	tb, err := t.table(name)
	if err != nil {
		return 0, err
	}
	it, err := t.r.NewIter(tb.ns.prefix, tb.ns.upper)
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

func (t *tx) Cursor(name string) (kv.Cursor, error) {
	tb, err := t.table(name)
	if err != nil {
		return nil, err
	}
	c := &cursor{tx: t, tb: tb}
	t.cursors = append(t.cursors, c)
	return c, nil
}

func (t *tx) Commit() error {
	if t.ended {
		return nil
	}
	t.closeCursors()
	var err error
	if t.w != nil {
		err = t.w.Commit()
		if err != nil {
			t.w.Discard()
		}
	} else {
		t.r.Discard()
	}
	if err == nil && len(t.created) > 0 {
		t.env.remember(t.created)
	}
	t.end()
	return err
}

func (t *tx) Abort() {
	if t.ended {
		return
	}
	t.closeCursors()
	t.r.Discard()
	t.end()
}

func (t *tx) end() {
	t.ended = true
	if t.w != nil {
		t.env.writer.Unlock()
	}
}

func (t *tx) closeCursors() {
	for _, c := range t.cursors {
		c.Close()
	}
	t.cursors = nil
}
