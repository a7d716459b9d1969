package chainkv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/chainkv/codec"
)

var (
	testPlain = NewTable("Plain", codec.Uint64, codec.String)
	testDup   = NewDupTable("Dup", codec.Uint64, codec.Uint64)
	testOther = NewTable("Other", codec.String, codec.Bytes)

	testSchema = MustSchema(testPlain, testDup, testOther)
)

// testOptions keeps the data files small.
func testOptions(b Backend) []Option {
	return []Option{
		WithBackend(b),
		WithGeometry(64*MiB, 4*MiB, 0),
		WithMaxReaders(128),
	}
}

func openTestEnv(t testing.TB, dir string, b Backend, mode Mode, extra ...Option) *Env {
	t.Helper()
	env, err := Open(dir, mode, testSchema, append(testOptions(b), extra...)...)
	require.NoError(t, err)
	if mode == ReadWrite {
		require.NoError(t, env.CreateTables())
	}
	t.Cleanup(func() { env.Close() })
	return env
}

// forEachBackend runs fn against a fresh environment on every compiled-in
// backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, env *Env)) {
	for _, b := range Backends() {
		t.Run(string(b), func(t *testing.T) {
			fn(t, openTestEnv(t, t.TempDir(), b, ReadWrite))
		})
	}
}

func fill(t *testing.T, env *Env, n uint64) {
	t.Helper()
	require.NoError(t, env.Update(func(tx *Tx) error {
		for i := uint64(0); i < n; i++ {
			if err := Put(tx, testPlain, i, ""); err != nil {
				return err
			}
		}
		return nil
	}))
}

func collectKeys[K, V any](t *testing.T, w *Walker[K, V]) []K {
	t.Helper()
	entries, err := w.Collect()
	require.NoError(t, err)
	keys := make([]K, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}
