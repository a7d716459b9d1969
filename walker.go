package chainkv

import "bytes"

// Walker iterates a cursor forward from the entry its constructor seeked
// to. It is lazy, finite and cannot be restarted:
//
//	w, err := cur.Walk()
//	if err != nil { ... }
//	for w.Next() {
//		e := w.Entry()
//		...
//	}
//	if err := w.Err(); err != nil { ... }
//
// The first error ends the walk and is reported by Err.
type Walker[K, V any] struct {
	cursor  *Cursor[K, V]
	start   *Entry[K, V]
	step    func() (*Entry[K, V], error)
	inRange func(*Entry[K, V]) bool

	entry   Entry[K, V]
	err     error
	started bool
	done    bool
}

func newWalker[K, V any](c *Cursor[K, V], start *Entry[K, V], step func() (*Entry[K, V], error)) *Walker[K, V] {
	return &Walker[K, V]{cursor: c, start: start, step: step, done: start == nil}
}

// Walk walks the whole table from its first entry.
func (c *Cursor[K, V]) Walk() (*Walker[K, V], error) {
	first, err := c.First()
	if err != nil {
		return nil, err
	}
	return newWalker(c, first, c.Next), nil
}

// WalkFrom walks from the first entry whose key is >= key.
func (c *Cursor[K, V]) WalkFrom(key K) (*Walker[K, V], error) {
	first, err := c.Seek(key)
	if err != nil {
		return nil, err
	}
	return newWalker(c, first, c.Next), nil
}

// WalkDup walks the values of exactly key.
func (c *Cursor[K, V]) WalkDup(key K) (*Walker[K, V], error) {
	first, err := c.SeekExact(key)
	if err != nil {
		return nil, err
	}
	return newWalker(c, first, c.NextDup), nil
}

// WalkRange walks keys in [from, to), compared by their encoding.
func (c *Cursor[K, V]) WalkRange(from, to K) (*Walker[K, V], error) {
	first, err := c.Seek(from)
	if err != nil {
		return nil, err
	}
	w := newWalker(c, first, c.Next)
	limit := c.table.key.Encode(to)
	w.inRange = func(e *Entry[K, V]) bool {
		return bytes.Compare(c.table.key.Encode(e.Key), limit) < 0
	}
	return w, nil
}

// Next advances to the next entry and reports whether there is one.
func (w *Walker[K, V]) Next() bool {
	if w.done {
		return false
	}
	var (
		e   *Entry[K, V]
		err error
	)
	if !w.started {
		w.started = true
		e, w.start = w.start, nil
	} else {
		e, err = w.step()
	}
	if err != nil {
		w.err = err
		w.done = true
		return false
	}
	if e == nil || (w.inRange != nil && !w.inRange(e)) {
		w.done = true
		return false
	}
	w.entry = *e
	return true
}

// Entry returns the entry Next moved to.
func (w *Walker[K, V]) Entry() Entry[K, V] { return w.entry }

// Key returns the key of the current entry.
func (w *Walker[K, V]) Key() K { return w.entry.Key }

// Value returns the value of the current entry.
func (w *Walker[K, V]) Value() V { return w.entry.Value }

// Err returns the error that ended the walk, if any.
func (w *Walker[K, V]) Err() error { return w.err }

// Collect drains the walker.
func (w *Walker[K, V]) Collect() ([]Entry[K, V], error) {
	var out []Entry[K, V]
	for w.Next() {
		out = append(out, w.Entry())
	}
	return out, w.Err()
}
