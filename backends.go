package chainkv

import (
	"github.com/Giulio2002/chainkv/internal/kv"

	// Storage engines register themselves with the kv registry.
	_ "github.com/Giulio2002/chainkv/internal/kv/boltkv"
	_ "github.com/Giulio2002/chainkv/internal/kv/leveldbkv"
	_ "github.com/Giulio2002/chainkv/internal/kv/mdbxkv"
	_ "github.com/Giulio2002/chainkv/internal/kv/pebblekv"
)

// Backends lists the storage engines compiled into this build.
func Backends() []Backend {
	names := kv.Drivers()
	out := make([]Backend, len(names))
	for i, n := range names {
		out[i] = Backend(n)
	}
	return out
}
