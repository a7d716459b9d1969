package chainkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorWalkManually(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fill(t, env, 5)
		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testPlain)
			require.NoError(t, err)

			// unpositioned: Current finds nothing, Next starts at the top
			e, err := cur.Current()
			require.NoError(t, err)
			assert.Nil(t, e)

			var keys []uint64
			for e, err = cur.First(); e != nil; e, err = cur.Next() {
				keys = append(keys, e.Key)
			}
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 2, 3, 4}, keys)

			e, err = cur.Last()
			require.NoError(t, err)
			assert.EqualValues(t, 4, e.Key)
			e, err = cur.Prev()
			require.NoError(t, err)
			assert.EqualValues(t, 3, e.Key)
			return nil
		}))
	})
}

func TestCursorSeek(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		require.NoError(t, env.Update(func(tx *Tx) error {
			for _, k := range []uint64{10, 20, 30} {
				require.NoError(t, Put(tx, testPlain, k, ""))
			}
			return nil
		}))
		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testPlain)
			require.NoError(t, err)

			e, err := cur.Seek(15)
			require.NoError(t, err)
			assert.EqualValues(t, 20, e.Key)

			e, err = cur.SeekExact(15)
			require.NoError(t, err)
			assert.Nil(t, e)

			e, err = cur.SeekExact(30)
			require.NoError(t, err)
			assert.EqualValues(t, 30, e.Key)

			e, err = cur.Seek(31)
			require.NoError(t, err)
			assert.Nil(t, e)

			// plain tables hold one value per key
			e, err = cur.SeekExact(10)
			require.NoError(t, err)
			require.NotNil(t, e)
			n, err := cur.DupCount()
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			e, err = cur.NextDup()
			require.NoError(t, err)
			assert.Nil(t, e)
			e, err = cur.NextNoDup()
			require.NoError(t, err)
			assert.EqualValues(t, 20, e.Key)
			return nil
		}))
	})
}

func TestCursorInsertKeyExists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fill(t, env, 5)
		require.NoError(t, env.Update(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testPlain)
			require.NoError(t, err)

			require.NoError(t, cur.Insert(5, ""))

			err = cur.Insert(5, "again")
			require.Error(t, err)
			assert.True(t, IsKeyExists(err))
			assert.Equal(t, CodeWrite, Code(err))

			e, err := cur.Current()
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.EqualValues(t, 5, e.Key)
			assert.Equal(t, "", e.Value)

			w, err := cur.Walk()
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, collectKeys(t, w))
			return nil
		}))
	})
}

func TestCursorUpsertAndDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fill(t, env, 5)
		require.NoError(t, env.Update(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testPlain)
			require.NoError(t, err)

			require.NoError(t, cur.Upsert(1, "one"))
			e, err := cur.Current()
			require.NoError(t, err)
			assert.Equal(t, "one", e.Value)

			_, err = cur.SeekExact(2)
			require.NoError(t, err)
			require.NoError(t, cur.Delete())

			e, err = cur.Current()
			require.NoError(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, cur.Delete(), ErrNotPositioned)

			e, err = cur.Next()
			require.NoError(t, err)
			assert.EqualValues(t, 3, e.Key)
			return nil
		}))

		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testPlain)
			require.NoError(t, err)
			w, err := cur.Walk()
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 3, 4}, collectKeys(t, w))

			_, err = cur.First()
			require.NoError(t, err)
			assert.ErrorIs(t, cur.Delete(), ErrReadOnly)
			assert.ErrorIs(t, cur.Upsert(9, ""), ErrReadOnly)
			return nil
		}))
	})
}

func fillDup(t *testing.T, env *Env) {
	t.Helper()
	require.NoError(t, env.Update(func(tx *Tx) error {
		for _, v := range []uint64{30, 10, 20} {
			require.NoError(t, Put(tx, testDup, 1, v))
		}
		require.NoError(t, Put(tx, testDup, 2, 5))
		return Put(tx, testDup, 4, 7)
	}))
}

func TestDupCursor(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fillDup(t, env)
		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testDup)
			require.NoError(t, err)

			e, err := cur.SeekExact(1)
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{1, 10}, e)

			n, err := cur.DupCount()
			require.NoError(t, err)
			assert.EqualValues(t, 3, n)

			e, err = cur.NextDup()
			require.NoError(t, err)
			assert.EqualValues(t, 20, e.Value)
			e, err = cur.LastDup()
			require.NoError(t, err)
			assert.EqualValues(t, 30, e.Value)
			e, err = cur.NextDup()
			require.NoError(t, err)
			assert.Nil(t, e)

			// a failed dup move keeps the position
			e, err = cur.Current()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{1, 30}, e)

			e, err = cur.PrevDup()
			require.NoError(t, err)
			assert.EqualValues(t, 20, e.Value)
			e, err = cur.FirstDup()
			require.NoError(t, err)
			assert.EqualValues(t, 10, e.Value)
			e, err = cur.PrevDup()
			require.NoError(t, err)
			assert.Nil(t, e)

			e, err = cur.NextNoDup()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{2, 5}, e)

			e, err = cur.SeekBoth(1, 15)
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{1, 20}, e)
			e, err = cur.SeekBoth(1, 31)
			require.NoError(t, err)
			assert.Nil(t, e)
			e, err = cur.SeekBoth(3, 0)
			require.NoError(t, err)
			assert.Nil(t, e)

			e, err = cur.Seek(3)
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{4, 7}, e)

			e, err = cur.Last()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{4, 7}, e)
			e, err = cur.Prev()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{2, 5}, e)
			e, err = cur.Prev()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{1, 30}, e)
			return nil
		}))
	})
}

func TestDupCursorInsert(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fillDup(t, env)
		require.NoError(t, env.Update(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testDup)
			require.NoError(t, err)

			// a new value under an existing key is fine
			require.NoError(t, cur.Insert(1, 25))

			err = cur.Insert(1, 20)
			assert.True(t, IsKeyExists(err))
			e, err := cur.Current()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{1, 20}, e)

			e, err = cur.NextDup()
			require.NoError(t, err)
			assert.EqualValues(t, 25, e.Value)
			return nil
		}))
	})
}

func TestDupCursorDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fillDup(t, env)
		require.NoError(t, env.Update(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testDup)
			require.NoError(t, err)

			_, err = cur.SeekBoth(1, 20)
			require.NoError(t, err)
			require.NoError(t, cur.Delete())
			e, err := cur.Next()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{1, 30}, e)

			_, err = cur.SeekExact(1)
			require.NoError(t, err)
			require.NoError(t, cur.DeleteDups())
			e, err = cur.Next()
			require.NoError(t, err)
			assert.Equal(t, &Entry[uint64, uint64]{2, 5}, e)

			n, err := tx.Entries(testDup)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)
			return nil
		}))
	})
}

func TestWalkers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fillDup(t, env)
		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testDup)
			require.NoError(t, err)

			w, err := cur.Walk()
			require.NoError(t, err)
			all, err := w.Collect()
			require.NoError(t, err)
			assert.Equal(t, []Entry[uint64, uint64]{{1, 10}, {1, 20}, {1, 30}, {2, 5}, {4, 7}}, all)

			w, err = cur.WalkDup(1)
			require.NoError(t, err)
			var values []uint64
			for w.Next() {
				values = append(values, w.Value())
			}
			require.NoError(t, w.Err())
			assert.Equal(t, []uint64{10, 20, 30}, values)
			// exhausted walkers stay exhausted
			assert.False(t, w.Next())

			w, err = cur.WalkDup(3)
			require.NoError(t, err)
			assert.False(t, w.Next())

			w, err = cur.WalkFrom(2)
			require.NoError(t, err)
			assert.Equal(t, []uint64{2, 4}, collectKeys(t, w))

			w, err = cur.WalkRange(1, 4)
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 1, 1, 2}, collectKeys(t, w))

			w, err = cur.WalkRange(5, 9)
			require.NoError(t, err)
			assert.Empty(t, collectKeys(t, w))
			return nil
		}))
	})
}

func TestWalkerStopsOnTxEnd(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		fill(t, env, 3)
		tx, err := env.BeginRead()
		require.NoError(t, err)
		cur, err := OpenCursor(tx, testPlain)
		require.NoError(t, err)
		w, err := cur.Walk()
		require.NoError(t, err)

		require.True(t, w.Next())
		tx.Abort()
		assert.False(t, w.Next())
		assert.ErrorIs(t, w.Err(), ErrTxDone)
	})
}

func TestDupWalkSameValue(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		require.NoError(t, env.Update(func(tx *Tx) error {
			for _, k := range []uint64{2, 0, 1} {
				require.NoError(t, Put(tx, testDup, k, 0))
			}
			return nil
		}))
		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testDup)
			require.NoError(t, err)
			w, err := cur.Walk()
			require.NoError(t, err)
			all, err := w.Collect()
			require.NoError(t, err)
			assert.Equal(t, []Entry[uint64, uint64]{{0, 0}, {1, 0}, {2, 0}}, all)
			assert.False(t, w.Next())
			return nil
		}))
	})
}

func TestWalkerStopsOnDecodeError(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *Env) {
		require.NoError(t, env.Update(func(tx *Tx) error {
			require.NoError(t, Put(tx, testDup, 1, 10))
			require.NoError(t, Put(tx, Raw(testDup), []byte{0, 0, 0, 0, 0, 0, 0, 2}, []byte{0xff}))
			return Put(tx, testDup, 3, 30)
		}))
		require.NoError(t, env.View(func(tx *Tx) error {
			cur, err := OpenCursor(tx, testDup)
			require.NoError(t, err)
			w, err := cur.Walk()
			require.NoError(t, err)

			require.True(t, w.Next())
			assert.EqualValues(t, 1, w.Key())
			assert.False(t, w.Next())
			assert.True(t, IsDecode(w.Err()))
			assert.False(t, w.Next())
			return nil
		}))
	})
}
