// Package boltkv runs the flatkv driver on a single bbolt bucket.
package boltkv

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Giulio2002/chainkv/internal/kv"
	"github.com/Giulio2002/chainkv/internal/kv/flatkv"
)

// Name is the driver name used with kv.Open.
const Name = "bolt"

const fileName = "chainkv.bolt"

var bucket = []byte("chainkv")

// maxInitialMmap caps the address space reserved up front.
const maxInitialMmap = 16 << 30

// lockTimeout bounds how long Open waits for another process's file lock.
const lockTimeout = time.Second

func init() {
	kv.Register(Name, Open)
}

// Open opens the bolt file under cfg.Path.
func Open(cfg kv.Config) (kv.Env, error) {
	if !cfg.ReadOnly {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, err
		}
	}
	// A writer that must remap waits for every open reader, so map the
	// whole file size the env may reach.
	mmap := cfg.MaxSize
	if mmap <= 0 || mmap > maxInitialMmap {
		mmap = maxInitialMmap
	}
	db, err := bolt.Open(filepath.Join(cfg.Path, fileName), 0644, &bolt.Options{
		Timeout:         lockTimeout,
		ReadOnly:        cfg.ReadOnly,
		InitialMmapSize: int(mmap),
	})
	if err != nil {
		return nil, err
	}
	if !cfg.ReadOnly {
		err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return flatkv.New(&store{db: db}, cfg.ReadOnly), nil
}

type store struct {
	db *bolt.DB
}

func (s *store) BeginRead() (flatkv.Reader, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &reader{tx: tx, b: tx.Bucket(bucket)}, nil
}

func (s *store) BeginWrite() (flatkv.Writer, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, err
	}
	b, err := tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &writer{reader{tx: tx, b: b}}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

type reader struct {
	tx *bolt.Tx
	b  *bolt.Bucket // nil in a read-only file that was never written
}

// Get seeks instead of calling Bucket.Get so that empty values are told
// apart from missing keys.
func (r *reader) Get(key []byte) ([]byte, error) {
	if r.b == nil {
		return nil, flatkv.ErrNotFound
	}
	k, v := r.b.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, flatkv.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *reader) NewIter(lower, upper []byte) (flatkv.Iter, error) {
	it := &iter{lower: lower, upper: upper}
	if r.b != nil {
		it.c = r.b.Cursor()
	}
	return it, nil
}

func (r *reader) Discard() {
	// Rollback on a finished transaction only reports ErrTxClosed.
	_ = r.tx.Rollback()
}

type writer struct {
	reader
}

func (w *writer) Set(key, value []byte) error {
	return w.b.Put(key, value)
}

func (w *writer) Delete(key []byte) error {
	return w.b.Delete(key)
}

func (w *writer) Commit() error {
	return w.tx.Commit()
}

// iter bounds a bolt cursor to [lower, upper).
type iter struct {
	c            *bolt.Cursor
	lower, upper []byte
	k, v         []byte
}

func (it *iter) set(k, v []byte) bool {
	if k == nil || bytes.Compare(k, it.lower) < 0 || (it.upper != nil && bytes.Compare(k, it.upper) >= 0) {
		it.k, it.v = nil, nil
		return false
	}
	it.k, it.v = k, v
	return true
}

func (it *iter) First() bool {
	if it.c == nil {
		return false
	}
	return it.set(it.c.Seek(it.lower))
}

func (it *iter) Last() bool {
	if it.c == nil {
		return false
	}
	if it.upper == nil {
		return it.set(it.c.Last())
	}
	return it.SeekLT(it.upper)
}

func (it *iter) SeekGE(key []byte) bool {
	if it.c == nil {
		return false
	}
	if bytes.Compare(key, it.lower) < 0 {
		key = it.lower
	}
	return it.set(it.c.Seek(key))
}

func (it *iter) SeekLT(key []byte) bool {
	if it.c == nil {
		return false
	}
	if k, _ := it.c.Seek(key); k == nil {
		return it.set(it.c.Last())
	}
	return it.set(it.c.Prev())
}

func (it *iter) Next() bool {
	if it.c == nil || it.k == nil {
		return false
	}
	return it.set(it.c.Next())
}

func (it *iter) Prev() bool {
	if it.c == nil || it.k == nil {
		return false
	}
	return it.set(it.c.Prev())
}

func (it *iter) Key() []byte   { return it.k }
func (it *iter) Value() []byte { return it.v }
func (it *iter) Error() error  { return nil }
func (it *iter) Close() error  { return nil }
