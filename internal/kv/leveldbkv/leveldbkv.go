// Package leveldbkv runs the flatkv driver on goleveldb.
package leveldbkv

import (
	"bytes"
	"errors"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/Giulio2002/chainkv/internal/kv"
	"github.com/Giulio2002/chainkv/internal/kv/flatkv"
)

// Name is the driver name used with kv.Open.
const Name = "leveldb"

const dirName = "leveldb"

func init() {
	kv.Register(Name, Open)
}

// Open opens the leveldb store under cfg.Path.
func Open(cfg kv.Config) (kv.Env, error) {
	db, err := leveldb.OpenFile(filepath.Join(cfg.Path, dirName), &opt.Options{
		ReadOnly:       cfg.ReadOnly,
		ErrorIfMissing: cfg.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	return flatkv.New(&store{db: db}, cfg.ReadOnly), nil
}

type store struct {
	db *leveldb.DB
}

func (s *store) BeginRead() (flatkv.Reader, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &reader{src: snap, release: snap.Release}, nil
}

func (s *store) BeginWrite() (flatkv.Writer, error) {
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return &writer{reader: reader{src: tr, release: tr.Discard}, tr: tr}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// source is implemented by both *leveldb.Snapshot and *leveldb.Transaction.
type source interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type reader struct {
	src     source
	release func()
	done    bool
}

func (r *reader) Get(key []byte) ([]byte, error) {
	v, err := r.src.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, flatkv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := bytes.Clone(v)
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (r *reader) NewIter(lower, upper []byte) (flatkv.Iter, error) {
	it := r.src.NewIterator(&util.Range{Start: lower, Limit: upper}, nil)
	if err := it.Error(); err != nil {
		it.Release()
		return nil, err
	}
	return iter{it}, nil
}

func (r *reader) Discard() {
	if r.done {
		return
	}
	r.done = true
	r.release()
}

type writer struct {
	reader
	tr *leveldb.Transaction
}

func (w *writer) Set(key, value []byte) error {
	return w.tr.Put(key, value, nil)
}

func (w *writer) Delete(key []byte) error {
	return w.tr.Delete(key, nil)
}

func (w *writer) Commit() error {
	if w.done {
		return leveldb.ErrClosed
	}
	// a failed commit leaves the transaction for Discard
	if err := w.tr.Commit(); err != nil {
		return err
	}
	w.done = true
	return nil
}

// iter adapts goleveldb's iterator, which seeks forward only.
type iter struct {
	iterator.Iterator
}

func (it iter) SeekGE(key []byte) bool {
	return it.Seek(key)
}

func (it iter) SeekLT(key []byte) bool {
	if it.Seek(key) {
		return it.Prev()
	}
	if err := it.Iterator.Error(); err != nil {
		return false
	}
	return it.Last()
}

func (it iter) Close() error {
	it.Release()
	return nil
}
