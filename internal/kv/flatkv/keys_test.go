package flatkv

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapedKeysKeepOrder(t *testing.T) {
	keys := [][]byte{
		{},
		{0x00},
		{0x00, 0x00},
		{0x00, 0x01},
		{0x00, 0xff},
		{0x01},
		{0x01, 0x00},
		{0xff},
		{0xff, 0x00, 0xff},
	}
	require.True(t, sort.SliceIsSorted(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	}))

	// Every value of a smaller key must sort before any value of a larger
	// key, whatever the value bytes are.
	var composites [][]byte
	for _, k := range keys {
		composites = append(composites, dupKey(k, nil), dupKey(k, []byte{0xff, 0xff, 0xff}))
	}
	require.True(t, sort.SliceIsSorted(composites, func(i, j int) bool {
		return bytes.Compare(composites[i], composites[j]) < 0
	}))
}

func TestSplitDup(t *testing.T) {
	tests := []struct {
		name       string
		key, value []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"plain", []byte("acct"), []byte("slot")},
		{"zeros in key", []byte{0, 1, 0, 0}, []byte{0, 1}},
		{"terminator in value", []byte{7}, []byte{0x00, 0x01, 0x00, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, v, ok := splitDup(dupKey(tt.key, tt.value))
			require.True(t, ok)
			require.Equal(t, tt.key, k)
			require.Equal(t, tt.value, v)
		})
	}

	_, _, ok := splitDup([]byte{0x01, 0x00})
	require.False(t, ok)
	_, _, ok = splitDup([]byte{0x01, 0x00, 0x07})
	require.False(t, ok)
}

func TestSuccessorBoundsKey(t *testing.T) {
	esc := appendEscaped(nil, []byte{0x05})
	upper := successor(esc)
	require.Negative(t, bytes.Compare(dupKey([]byte{0x05}, []byte{0xff, 0xff}), upper))
	require.Positive(t, bytes.Compare(dupKey([]byte{0x05, 0x00}, nil), upper))
	require.Negative(t, bytes.Compare(upper, dupKey([]byte{0x06}, nil)))
}

func TestNamespacesDisjoint(t *testing.T) {
	a := newNamespace("Headers")
	b := newNamespace("HeadersExtra")
	require.False(t, bytes.HasPrefix(b.key(nil), a.prefix))
	require.False(t, bytes.HasPrefix(catalog.key([]byte("Headers")), a.prefix))
	require.Negative(t, bytes.Compare(a.key([]byte{0xff, 0xff}), a.upper))
}
