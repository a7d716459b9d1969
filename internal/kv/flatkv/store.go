// Package flatkv implements the kv driver contract on top of ordered
// key-value stores that have a single flat keyspace and no notion of
// duplicate keys, such as pebble, leveldb, rocksdb or a bbolt bucket.
//
// Every table lives under its own key prefix. Dup-sorted pairs are folded
// into the key: escape(key) 0x00 0x01 value, stored with an empty payload,
// which keeps pairs grouped by key and ordered by value.
package flatkv

import "errors"

// ErrNotFound must be returned by Reader.Get for missing keys.
var ErrNotFound = errors.New("flatkv: not found")

// Store is an ordered byte keyspace with snapshot reads and a single
// writer.
type Store interface {
	BeginRead() (Reader, error)
	BeginWrite() (Writer, error)
	Close() error
}

// Reader is a consistent view of the store.
type Reader interface {
	Get(key []byte) ([]byte, error)
	// NewIter iterates keys in [lower, upper).
	NewIter(lower, upper []byte) (Iter, error)
	Discard()
}

// Writer is a Reader that also sees and commits its own writes.
type Writer interface {
	Reader
	Set(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Iter is a bidirectional iterator. Key and Value are valid until the
// next move. Iterators created before a write need not observe it.
type Iter interface {
	First() bool
	Last() bool
	SeekGE(key []byte) bool
	SeekLT(key []byte) bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}
