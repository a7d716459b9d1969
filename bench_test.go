package chainkv

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func formatSize(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func populated(b *testing.B, backend Backend, size int) *Env {
	b.Helper()
	env := openTestEnv(b, b.TempDir(), backend, ReadWrite, WithGeometry(GiB, 64*MiB, 0))
	require.NoError(b, env.Update(func(tx *Tx) error {
		for i := 0; i < size; i++ {
			if err := Put(tx, testPlain, uint64(i), "value"); err != nil {
				return err
			}
		}
		return nil
	}))
	return env
}

// BenchmarkBackends compares the engines on pre-populated tables. Every
// operation runs inside one long transaction, so transaction setup is
// not measured.
func BenchmarkBackends(b *testing.B) {
	for _, size := range []int{10_000, 100_000} {
		for _, backend := range Backends() {
			name := fmt.Sprintf("%s/%s", formatSize(size), backend)

			b.Run("RandGet_"+name, func(b *testing.B) {
				env := populated(b, backend, size)
				tx, err := env.BeginRead()
				require.NoError(b, err)
				defer tx.Abort()

				rng := rand.New(rand.NewSource(1))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, _, err := Get(tx, testPlain, uint64(rng.Intn(size))); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("SeqWalk_"+name, func(b *testing.B) {
				env := populated(b, backend, size)
				tx, err := env.BeginRead()
				require.NoError(b, err)
				defer tx.Abort()
				cur, err := OpenCursor(tx, testPlain)
				require.NoError(b, err)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					e, err := cur.Next()
					if err != nil {
						b.Fatal(err)
					}
					if e == nil {
						if _, err := cur.First(); err != nil {
							b.Fatal(err)
						}
					}
				}
			})

			b.Run("RandPut_"+name, func(b *testing.B) {
				env := populated(b, backend, size)
				tx, err := env.BeginWrite()
				require.NoError(b, err)
				defer tx.Abort()

				rng := rand.New(rand.NewSource(1))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := Put(tx, testPlain, uint64(rng.Intn(size)), "updated"); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkCommit(b *testing.B) {
	for _, backend := range Backends() {
		b.Run(string(backend), func(b *testing.B) {
			env := populated(b, backend, 1000)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				err := env.Update(func(tx *Tx) error {
					return Put(tx, testPlain, uint64(i%1000), "updated")
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
