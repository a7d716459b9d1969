// Package pebblekv runs the flatkv driver on CockroachDB's pebble.
package pebblekv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/Giulio2002/chainkv/internal/kv"
	"github.com/Giulio2002/chainkv/internal/kv/flatkv"
)

// Name is the driver name used with kv.Open.
const Name = "pebble"

const dirName = "pebble"

func init() {
	kv.Register(Name, Open)
}

// Open opens the pebble store under cfg.Path.
func Open(cfg kv.Config) (kv.Env, error) {
	dir := filepath.Join(cfg.Path, dirName)
	if cfg.ReadOnly {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}
	db, err := pebble.Open(dir, &pebble.Options{
		ReadOnly: cfg.ReadOnly,
		Logger:   quietLogger{},
	})
	if err != nil {
		return nil, err
	}
	return flatkv.New(&store{db: db}, cfg.ReadOnly), nil
}

type store struct {
	db *pebble.DB
}

func (s *store) BeginRead() (flatkv.Reader, error) {
	return &reader{src: s.db.NewSnapshot()}, nil
}

// An indexed batch reads its own writes; it is applied atomically on
// commit.
func (s *store) BeginWrite() (flatkv.Writer, error) {
	b := s.db.NewIndexedBatch()
	return &writer{reader: reader{src: b}, batch: b}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// source is implemented by both *pebble.Snapshot and *pebble.Batch.
type source interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
	Close() error
}

type reader struct {
	src  source
	done bool
}

func (r *reader) Get(key []byte) ([]byte, error) {
	v, closer, err := r.src.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, flatkv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := bytes.Clone(v)
	if out == nil {
		out = []byte{}
	}
	return out, closer.Close()
}

func (r *reader) NewIter(lower, upper []byte) (flatkv.Iter, error) {
	it, err := r.src.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *reader) Discard() {
	if r.done {
		return
	}
	r.done = true
	r.src.Close()
}

type writer struct {
	reader
	batch *pebble.Batch
}

func (w *writer) Set(key, value []byte) error {
	return w.batch.Set(key, value, nil)
}

func (w *writer) Delete(key []byte) error {
	return w.batch.Delete(key, nil)
}

func (w *writer) Commit() error {
	if w.done {
		return errors.New("pebble: batch already finished")
	}
	err := w.batch.Commit(pebble.Sync)
	w.Discard()
	return err
}

// quietLogger keeps pebble's background chatter out of the application log.
type quietLogger struct{}

func (quietLogger) Infof(string, ...interface{})  {}
func (quietLogger) Errorf(string, ...interface{}) {}
func (quietLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}
