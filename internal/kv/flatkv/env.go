package flatkv

import (
	"errors"
	"sync"

	"github.com/Giulio2002/chainkv/internal/kv"
)

type env struct {
	store Store
	ro    bool

	// writer serialises write transactions across all stores, some of
	// which would otherwise fail instead of blocking.
	writer sync.Mutex

	// kinds caches committed catalog entries. epoch advances on every
	// publish; a transaction only trusts entries published no later than
	// the epoch it began at, which its snapshot is guaranteed to contain.
	mu    sync.RWMutex
	epoch uint64
	kinds map[string]cachedKind
}

type cachedKind struct {
	kind  kv.Kind
	epoch uint64
}

// New wraps store as a kv.Env.
func New(store Store, readOnly bool) kv.Env {
	return &env{store: store, ro: readOnly, kinds: make(map[string]cachedKind)}
}

func (e *env) BeginRO() (kv.Tx, error) {
	epoch := e.currentEpoch()
	r, err := e.store.BeginRead()
	if err != nil {
		return nil, err
	}
	return &tx{env: e, r: r, epoch: epoch}, nil
}

func (e *env) BeginRW() (kv.Tx, error) {
	if e.ro {
		return nil, kv.ErrReadOnly
	}
	e.writer.Lock()
	epoch := e.currentEpoch()
	w, err := e.store.BeginWrite()
	if err != nil {
		e.writer.Unlock()
		return nil, err
	}
	return &tx{env: e, r: w, w: w, epoch: epoch}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func (e *env) currentEpoch() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.epoch
}

// kind returns the cached kind of name if it was published by epoch.
func (e *env) kind(name string, epoch uint64) (kv.Kind, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.kinds[name]
	if !ok || c.epoch > epoch {
		return 0, false
	}
	return c.kind, true
}

// remember publishes tables created by a committed transaction.
func (e *env) remember(kinds map[string]kv.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	for name, k := range kinds {
		e.kinds[name] = cachedKind{kind: k, epoch: e.epoch}
	}
}

var catalog = newNamespace(catalogName)

func readKind(r Reader, name string) (kv.Kind, error) {
	v, err := r.Get(catalog.key([]byte(name)))
	if errors.Is(err, ErrNotFound) {
		return 0, kv.ErrUnknownTable
	}
	if err != nil {
		return 0, err
	}
	if len(v) != 1 || kv.Kind(v[0]) > kv.DupSort {
		return 0, errors.New("flatkv: corrupt table catalog entry for " + name)
	}
	return kv.Kind(v[0]), nil
}
