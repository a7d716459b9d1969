package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/chainkv"
	"github.com/Giulio2002/chainkv/primitives"
	"github.com/Giulio2002/chainkv/tables"
)

func openEnv(t *testing.T, b chainkv.Backend) *chainkv.Env {
	t.Helper()
	env, err := chainkv.Open(t.TempDir(), chainkv.ReadWrite, tables.Schema,
		chainkv.WithBackend(b),
		chainkv.WithGeometry(64*chainkv.MiB, 4*chainkv.MiB, 0))
	require.NoError(t, err)
	require.NoError(t, env.CreateTables())
	t.Cleanup(func() { env.Close() })
	return env
}

func forEachBackend(t *testing.T, fn func(t *testing.T, env *chainkv.Env)) {
	for _, b := range chainkv.Backends() {
		t.Run(string(b), func(t *testing.T) { fn(t, openEnv(t, b)) })
	}
}

func header(n uint64) primitives.Header {
	return primitives.Header{
		ParentHash:       primitives.FeltFromUint64(1000 + n - 1),
		Number:           n,
		GasPrices:        primitives.GasPrices{Eth: 10 * n, Strk: n},
		Timestamp:        1_700_000_000 + n,
		SequencerAddress: primitives.FeltFromUint64(0x5e9),
		Version:          "0.13.1",
	}
}

func config(steps uint32) primitives.CfgEnv {
	return primitives.CfgEnv{
		ChainID:           primitives.FeltFromUint64(0x4b4154414e41),
		FeeTokenAddress:   primitives.FeltFromUint64(0xfee),
		VMResourceFeeCost: map[string]float64{"n_steps": 0.01},
		InvokeTxMaxNSteps: steps,
		ValidateMaxNSteps: steps / 2,
		MaxRecursionDepth: 50,
	}
}

func hashOf(n uint64) primitives.BlockHash {
	return primitives.FeltFromUint64(1000 + n)
}

func seed(t *testing.T, env *chainkv.Env) {
	t.Helper()
	require.NoError(t, env.Update(func(tx *chainkv.Tx) error {
		for n := uint64(0); n < 10; n++ {
			if err := InsertBlock(tx, hashOf(n), header(n)); err != nil {
				return err
			}
		}
		if err := SetChainConfig(tx, 0, config(1_000_000)); err != nil {
			return err
		}
		return SetChainConfig(tx, 5, config(2_000_000))
	}))
}

func TestEnvAt(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *chainkv.Env) {
		seed(t, env)
		db := New(env)

		byNum, err := db.EnvAt(primitives.ByNumber(3))
		require.NoError(t, err)
		h := header(3)
		assert.Equal(t, primitives.BlockEnvFromHeader(&h), byNum)

		byHash, err := db.EnvAt(primitives.ByHash(hashOf(3)))
		require.NoError(t, err)
		assert.Equal(t, byNum, byHash)
	})
}

func TestEnvAtMissingBlock(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *chainkv.Env) {
		seed(t, env)
		db := New(env)

		_, err := db.EnvAt(primitives.ByNumber(10))
		assert.True(t, errors.Is(err, ErrBlockNotFound))

		_, err = db.EnvAt(primitives.ByHash(primitives.FeltFromUint64(7)))
		assert.True(t, errors.Is(err, ErrBlockNotFound))
	})
}

func TestExecEnvAtPicksActiveConfig(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *chainkv.Env) {
		seed(t, env)
		db := New(env)

		for _, tc := range []struct {
			block uint64
			steps uint32
		}{
			{0, 1_000_000},
			{4, 1_000_000},
			{5, 2_000_000},
			{9, 2_000_000},
		} {
			benv, cfg, err := db.ExecEnvAt(primitives.ByNumber(tc.block))
			require.NoError(t, err)
			assert.Equal(t, tc.block, benv.Number)
			assert.Equal(t, config(tc.steps), cfg, "block %d", tc.block)
		}
	})
}

func TestExecEnvAtWithoutConfig(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *chainkv.Env) {
		require.NoError(t, env.Update(func(tx *chainkv.Tx) error {
			if err := InsertBlock(tx, hashOf(1), header(1)); err != nil {
				return err
			}
			return SetChainConfig(tx, 2, config(1))
		}))

		_, _, err := New(env).ExecEnvAt(primitives.ByNumber(1))
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})
}

func TestNonceChanges(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *chainkv.Env) {
		changes := []primitives.ContractNonceChange{
			{ContractAddress: primitives.FeltFromUint64(3), Nonce: primitives.FeltFromUint64(1)},
			{ContractAddress: primitives.FeltFromUint64(1), Nonce: primitives.FeltFromUint64(9)},
			{ContractAddress: primitives.FeltFromUint64(2), Nonce: primitives.FeltFromUint64(4)},
		}
		require.NoError(t, env.Update(func(tx *chainkv.Tx) error {
			for _, c := range changes {
				if err := RecordNonceChange(tx, 7, c); err != nil {
					return err
				}
			}
			return RecordNonceChange(tx, 8, changes[0])
		}))

		require.NoError(t, env.View(func(tx *chainkv.Tx) error {
			got, err := NonceChangesAt(tx, 7)
			require.NoError(t, err)
			assert.Equal(t, []primitives.ContractNonceChange{changes[1], changes[2], changes[0]}, got)

			got, err = NonceChangesAt(tx, 6)
			require.NoError(t, err)
			assert.Empty(t, got)
			return nil
		}))
	})
}

func TestStorage(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *chainkv.Env) {
		addr := primitives.FeltFromUint64(0xc0)
		k1, k2 := primitives.FeltFromUint64(1), primitives.FeltFromUint64(2)

		require.NoError(t, env.Update(func(tx *chainkv.Tx) error {
			require.NoError(t, SetStorage(tx, addr, k2, primitives.FeltFromUint64(20)))
			require.NoError(t, SetStorage(tx, addr, k1, primitives.FeltFromUint64(10)))
			// overwrite keeps a single slot
			require.NoError(t, SetStorage(tx, addr, k1, primitives.FeltFromUint64(11)))
			return nil
		}))

		require.NoError(t, env.View(func(tx *chainkv.Tx) error {
			v, err := StorageAt(tx, addr, k1)
			require.NoError(t, err)
			assert.Equal(t, primitives.FeltFromUint64(11), v)

			v, err = StorageAt(tx, addr, primitives.FeltFromUint64(3))
			require.NoError(t, err)
			assert.True(t, v.IsZero())

			n, err := tx.Entries(tables.ContractStorage)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)
			return nil
		}))

		// writing zero clears the slot
		require.NoError(t, env.Update(func(tx *chainkv.Tx) error {
			return SetStorage(tx, addr, k2, primitives.StorageValue{})
		}))
		require.NoError(t, env.View(func(tx *chainkv.Tx) error {
			n, err := tx.Entries(tables.ContractStorage)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			return nil
		}))
	})
}
