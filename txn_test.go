package chainkv

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPutGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		require.NoError(t, env.Update(func(tx *Tx) error {
			require.NoError(t, Put(tx, testPlain, 1, "one"))
			require.NoError(t, Put(tx, testOther, "a", []byte{0, 1, 2}))
			// a write transaction sees its own writes
			v, ok, err := Get(tx, testPlain, 1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "one", v)
			return Put(tx, testPlain, 1, "uno")
		}))

		require.NoError(t, env.View(func(tx *Tx) error {
			v, ok, err := Get(tx, testPlain, 1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "uno", v)

			b, ok, err := Get(tx, testOther, "a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte{0, 1, 2}, b)

			_, ok, err = Get(tx, testPlain, 2)
			require.NoError(t, err)
			assert.False(t, ok)

			n, err := tx.Entries(testPlain)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			return nil
		}))
	})
}

func TestDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fill(t, env, 5)
		require.NoError(t, env.Update(func(tx *Tx) error {
			ok, err := Delete(tx, testPlain, 2, nil)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = Delete(tx, testPlain, 2, nil)
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		}))

		require.NoError(t, env.View(func(tx *Tx) error {
			n, err := tx.Entries(testPlain)
			require.NoError(t, err)
			assert.EqualValues(t, 4, n)

			ok, err := Has(tx, testPlain, 2)
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		}))
	})
}

func TestDupPutGetDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		require.NoError(t, env.Update(func(tx *Tx) error {
			for _, v := range []uint64{30, 10, 20} {
				require.NoError(t, Put(tx, testDup, 1, v))
			}
			// the same pair twice is stored once
			require.NoError(t, Put(tx, testDup, 1, 20))
			return Put(tx, testDup, 2, 5)
		}))

		require.NoError(t, env.Update(func(tx *Tx) error {
			n, err := tx.Entries(testDup)
			require.NoError(t, err)
			assert.EqualValues(t, 4, n)

			// Get returns the smallest value
			v, ok, err := Get(tx, testDup, 1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.EqualValues(t, 10, v)

			twenty := uint64(20)
			ok, err = Delete(tx, testDup, 1, &twenty)
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = Delete(tx, testDup, 1, &twenty)
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = Delete(tx, testDup, 1, nil)
			require.NoError(t, err)
			assert.True(t, ok)

			n, err = tx.Entries(testDup)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			return nil
		}))
	})
}

func TestDecodeError(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		require.NoError(t, env.Update(func(tx *Tx) error {
			// three bytes where a uint64 belongs
			return Put(tx, Raw(testDup), []byte{0, 0, 0, 0, 0, 0, 0, 1}, []byte{1, 2, 3})
		}))

		err := env.View(func(tx *Tx) error {
			_, _, err := Get(tx, testDup, 1)
			return err
		})
		require.Error(t, err)
		assert.True(t, IsDecode(err))
		assert.Equal(t, CodeDecode, Code(err))
	})
}

func TestReaderIsolation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fill(t, env, 1)

		old, err := env.BeginRead()
		require.NoError(t, err)
		defer old.Abort()

		require.NoError(t, env.Update(func(tx *Tx) error {
			if _, err := Delete(tx, testPlain, 0, nil); err != nil {
				return err
			}
			return Put(tx, testPlain, 1, "new")
		}))

		ok, err := Has(old, testPlain, 0)
		require.NoError(t, err)
		assert.True(t, ok, "old snapshot lost a deleted key")
		ok, err = Has(old, testPlain, 1)
		require.NoError(t, err)
		assert.False(t, ok, "old snapshot saw a later write")

		require.NoError(t, env.View(func(tx *Tx) error {
			ok, err := Has(tx, testPlain, 1)
			require.NoError(t, err)
			assert.True(t, ok)
			return nil
		}))
	})
}

func TestConcurrentReaders(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		const n = 200
		fill(t, env, n)

		var g errgroup.Group
		for r := 0; r < 8; r++ {
			g.Go(func() error {
				return env.View(func(tx *Tx) error {
					cur, err := OpenCursor(tx, testPlain)
					if err != nil {
						return err
					}
					w, err := cur.Walk()
					if err != nil {
						return err
					}
					var want uint64
					for w.Next() {
						if w.Key() != want {
							return fmt.Errorf("walk: got key %d, want %d", w.Key(), want)
						}
						want++
					}
					if want != n {
						return fmt.Errorf("walk: saw %d keys, want %d", want, n)
					}
					return w.Err()
				})
			})
		}
		require.NoError(t, g.Wait())
	})
}

func TestTxIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		a, err := env.BeginRead()
		require.NoError(t, err)
		defer a.Abort()
		b, err := env.BeginRead()
		require.NoError(t, err)
		defer b.Abort()

		assert.NotEqual(t, a.ID(), b.ID())
		assert.True(t, a.ReadOnly())
		assert.Same(t, env, a.Env())
	})
}
