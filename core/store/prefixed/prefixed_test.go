package prefixed

import (
	"testing"

	"github.com/parleychat/parley/core/store/mem"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Isolation(t *testing.T) {
	base := mem.NewSnapshot()

	alpha := NewSnapshot("alpha", base)
	beta := NewSnapshot("beta", base)

	err := alpha.Set([]byte("key"), []byte("from alpha"))
	require.NoError(t, err)

	err = beta.Set([]byte("key"), []byte("from beta"))
	require.NoError(t, err)

	value, err := alpha.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("from alpha"), value)

	value, err = beta.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("from beta"), value)

	// The raw key is never written as-is.
	value, err = base.Get([]byte("key"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestSnapshot_Delete(t *testing.T) {
	base := mem.NewSnapshot()
	snap := NewSnapshot("alpha", base)

	err := snap.Set([]byte("key"), []byte("value"))
	require.NoError(t, err)

	err = snap.Delete([]byte("key"))
	require.NoError(t, err)

	value, err := snap.Get([]byte("key"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestReadable_SharesKeys(t *testing.T) {
	base := mem.NewSnapshot()
	snap := NewSnapshot("alpha", base)

	err := snap.Set([]byte("key"), []byte("value"))
	require.NoError(t, err)

	reader := NewReadable("alpha", base)

	value, err := reader.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)
}

func TestNewPrefixedKey(t *testing.T) {
	k1 := NewPrefixedKey([]byte("ab"), []byte("c"))
	k2 := NewPrefixedKey([]byte("a"), []byte("bc"))

	require.Len(t, k1, 32)
	require.NotEqual(t, k1, k2)

	require.Equal(t, k1, NewPrefixedKey([]byte("ab"), []byte("c")))
}
