package chainkv

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSharedPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newMetrics(BackendMDBX, "/shared")
	second := newMetrics(BackendMDBX, "/shared")
	require.NoError(t, first.register(reg))
	require.NoError(t, second.register(reg))

	first.begin(ReadOnly)
	second.begin(ReadOnly)
	assert.Equal(t, 2.0, testutil.ToFloat64(second.txBegun.WithLabelValues("ro")))

	// the first Env closing must not take the second one's series away
	first.unregister(reg)
	n, err := testutil.GatherAndCount(reg, "chainkv_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second.begin(ReadWrite)
	n, err = testutil.GatherAndCount(reg, "chainkv_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	second.unregister(reg)
	n, err = testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMetricsRegisterTwiceOnOtherPaths(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newMetrics(BackendMDBX, "/a")
	b := newMetrics(BackendMDBX, "/b")
	require.NoError(t, a.register(reg))
	require.NoError(t, b.register(reg))
	a.begin(ReadOnly)
	b.begin(ReadOnly)

	a.unregister(reg)
	n, err := testutil.GatherAndCount(reg, "chainkv_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b.unregister(reg)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.3.0", Version())
}
