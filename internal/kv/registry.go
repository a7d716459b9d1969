package kv

import (
	"fmt"
	"sort"
	"sync"
)

// OpenFunc opens a driver environment.
type OpenFunc func(cfg Config) (Env, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]OpenFunc)
)

// Register makes a driver available under name. It panics on duplicates,
// as drivers register from init.
func Register(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic("kv: Register called twice for driver " + name)
	}
	drivers[name] = open
}

// Open opens an environment with the named driver.
func Open(name string, cfg Config) (Env, error) {
	driversMu.RLock()
	open, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, name)
	}
	return open(cfg)
}

// Drivers returns the sorted names of registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
