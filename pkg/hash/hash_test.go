package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func identityHash(k int) uint32  { return uint32(k) }
func intEqual(a, b int) bool     { return a == b }

func TestSetGetDelete(t *testing.T) {
	tbl := New[int, string](identityHash, intEqual)
	tbl.Set(1, "one")
	tbl.Set(2, "two")

	v, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", v)

	require.Equal(t, 2, tbl.Len())
	require.True(t, tbl.Delete(1))
	require.Equal(t, 1, tbl.Len())

	_, ok = tbl.Get(1)
	require.False(t, ok)
}

func TestNeverStoresDuplicateKeys(t *testing.T) {
	tbl := New[int, string](identityHash, intEqual)
	tbl.Set(5, "a")
	tbl.Set(5, "b")
	require.Equal(t, 1, tbl.Len())
	v, _ := tbl.Get(5)
	require.Equal(t, "b", v)
}

func TestGrowsPastLoadFactor(t *testing.T) {
	tbl := New[int, int](identityHash, func(a, b int) bool { return a == b })
	for i := 0; i < 1000; i++ {
		tbl.Set(i, i*i)
	}
	require.Equal(t, 1000, tbl.Len())
	for i := 0; i < 1000; i++ {
		v, ok := tbl.Get(i)
		require.True(t, ok)
		require.Equal(t, i*i, v)
	}
}
