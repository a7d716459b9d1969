//go:build rocksdb

// Package rockskv runs the flatkv driver on RocksDB through gorocksdb.
// It needs librocksdb and is only built with the rocksdb tag.
package rockskv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/tecbot/gorocksdb"

	"github.com/Giulio2002/chainkv/internal/kv"
	"github.com/Giulio2002/chainkv/internal/kv/flatkv"
)

// Name is the driver name used with kv.Open.
const Name = "rocksdb"

const dirName = "rocksdb"

func init() {
	kv.Register(Name, Open)
}

// Open opens the RocksDB transaction database under cfg.Path.
func Open(cfg kv.Config) (kv.Env, error) {
	dir := filepath.Join(cfg.Path, dirName)
	if cfg.ReadOnly {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(!cfg.ReadOnly)
	opts.SetWriteBufferSize(64 * 1024 * 1024)
	opts.SetMaxWriteBufferNumber(3)
	opts.SetTargetFileSizeBase(64 * 1024 * 1024)

	tdbOpts := gorocksdb.NewDefaultTransactionDBOptions()
	db, err := gorocksdb.OpenTransactionDb(opts, tdbOpts, dir)
	if err != nil {
		opts.Destroy()
		tdbOpts.Destroy()
		return nil, err
	}
	wo := gorocksdb.NewDefaultWriteOptions()
	wo.SetSync(true)
	return flatkv.New(&store{db: db, opts: opts, tdbOpts: tdbOpts, wo: wo}, cfg.ReadOnly), nil
}

type store struct {
	db      *gorocksdb.TransactionDB
	opts    *gorocksdb.Options
	tdbOpts *gorocksdb.TransactionDBOptions
	wo      *gorocksdb.WriteOptions
}

// Reads also run inside a transaction, pinned to a snapshot, since that
// is where gorocksdb exposes iterators for a TransactionDB.
func (s *store) BeginRead() (flatkv.Reader, error) {
	snap := s.db.NewSnapshot()
	ro := gorocksdb.NewDefaultReadOptions()
	ro.SetSnapshot(snap)
	to := gorocksdb.NewDefaultTransactionOptions()
	txn := s.db.TransactionBegin(s.wo, to, nil)
	to.Destroy()
	return &reader{txn: txn, ro: ro, release: func() { s.db.ReleaseSnapshot(snap) }}, nil
}

func (s *store) BeginWrite() (flatkv.Writer, error) {
	ro := gorocksdb.NewDefaultReadOptions()
	to := gorocksdb.NewDefaultTransactionOptions()
	txn := s.db.TransactionBegin(s.wo, to, nil)
	to.Destroy()
	return &writer{reader{txn: txn, ro: ro}}, nil
}

func (s *store) Close() error {
	s.db.Close()
	s.wo.Destroy()
	s.tdbOpts.Destroy()
	s.opts.Destroy()
	return nil
}

type reader struct {
	txn     *gorocksdb.Transaction
	ro      *gorocksdb.ReadOptions
	release func()
	done    bool
}

func (r *reader) Get(key []byte) ([]byte, error) {
	v, err := r.txn.Get(r.ro, key)
	if err != nil {
		return nil, err
	}
	defer v.Free()
	if !v.Exists() {
		return nil, flatkv.ErrNotFound
	}
	return bytes.Clone(v.Data()), nil
}

func (r *reader) NewIter(lower, upper []byte) (flatkv.Iter, error) {
	return &iter{it: r.txn.NewIterator(r.ro), lower: lower, upper: upper}, nil
}

func (r *reader) Discard() {
	if r.done {
		return
	}
	r.done = true
	_ = r.txn.Rollback()
	r.txn.Destroy()
	r.ro.Destroy()
	if r.release != nil {
		r.release()
	}
}

type writer struct {
	reader
}

func (w *writer) Set(key, value []byte) error {
	return w.txn.Put(key, value)
}

func (w *writer) Delete(key []byte) error {
	return w.txn.Delete(key)
}

func (w *writer) Commit() error {
	if w.done {
		return errors.New("rocksdb: transaction already finished")
	}
	if err := w.txn.Commit(); err != nil {
		return err
	}
	w.done = true
	w.txn.Destroy()
	w.ro.Destroy()
	return nil
}

// iter bounds a RocksDB iterator to [lower, upper).
type iter struct {
	it           *gorocksdb.Iterator
	lower, upper []byte
	k, v         []byte
}

func (i *iter) load() bool {
	i.k, i.v = nil, nil
	if !i.it.Valid() {
		return false
	}
	k := i.it.Key()
	key := bytes.Clone(k.Data())
	k.Free()
	if bytes.Compare(key, i.lower) < 0 || (i.upper != nil && bytes.Compare(key, i.upper) >= 0) {
		return false
	}
	v := i.it.Value()
	i.k, i.v = key, bytes.Clone(v.Data())
	v.Free()
	return true
}

func (i *iter) First() bool {
	i.it.Seek(i.lower)
	return i.load()
}

func (i *iter) Last() bool {
	if i.upper == nil {
		i.it.SeekToLast()
		return i.load()
	}
	return i.SeekLT(i.upper)
}

func (i *iter) SeekGE(key []byte) bool {
	if bytes.Compare(key, i.lower) < 0 {
		key = i.lower
	}
	i.it.Seek(key)
	return i.load()
}

func (i *iter) SeekLT(key []byte) bool {
	i.it.SeekForPrev(key)
	if i.it.Valid() {
		k := i.it.Key()
		eq := bytes.Equal(k.Data(), key)
		k.Free()
		if eq {
			i.it.Prev()
		}
	}
	return i.load()
}

func (i *iter) Next() bool {
	if i.k == nil {
		return false
	}
	i.it.Next()
	return i.load()
}

func (i *iter) Prev() bool {
	if i.k == nil {
		return false
	}
	i.it.Prev()
	return i.load()
}

func (i *iter) Key() []byte   { return i.k }
func (i *iter) Value() []byte { return i.v }
func (i *iter) Error() error  { return i.it.Err() }

func (i *iter) Close() error {
	i.it.Close()
	return nil
}
