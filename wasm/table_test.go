package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTableAllNull(t *testing.T) {
	tbl := NewTable(3, nil)
	require.Equal(t, uint32(3), tbl.Size())
	for i := uint32(0); i < tbl.Size(); i++ {
		h, ok := tbl.Get(i)
		require.True(t, ok)
		require.Equal(t, NullFuncHandle, h)
	}
}

func TestTableGetSetBounds(t *testing.T) {
	tbl := NewTable(2, nil)

	require.True(t, tbl.Set(0, FuncHandle(5)))
	h, ok := tbl.Get(0)
	require.True(t, ok)
	require.Equal(t, FuncHandle(5), h)

	require.False(t, tbl.Set(2, FuncHandle(9)))
	_, ok = tbl.Get(2)
	require.False(t, ok)
}

func TestTableGrow(t *testing.T) {
	max := uint32(4)
	tbl := NewTable(2, &max)

	prev := tbl.Grow(2, NullFuncHandle)
	require.Equal(t, uint32(2), prev)
	require.Equal(t, uint32(4), tbl.Size())

	failed := tbl.Grow(1, NullFuncHandle)
	require.Equal(t, growFailed, failed)
	require.Equal(t, uint32(4), tbl.Size())
}
