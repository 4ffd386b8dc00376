package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryReadWriteRoundTrip(t *testing.T) {
	m := NewMemory(1, nil)
	require.Equal(t, uint32(1), m.Size())
	require.Equal(t, int(MemoryPageSize), len(m.Buffer))

	ok := m.WriteUint32Le(100, 0xdeadbeef)
	require.True(t, ok)
	v, ok := m.ReadUint32Le(100)
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), v)
}

func TestMemoryAccessBoundsFormula(t *testing.T) {
	m := NewMemory(1, nil)
	size := uint64(m.Size()) * uint64(MemoryPageSize)

	// An access of k bytes at effective address e succeeds iff e+k <= size.
	_, ok := m.Read(uint32(size-4), 4)
	require.True(t, ok)
	_, ok = m.Read(uint32(size-3), 4)
	require.False(t, ok)
	_, ok = m.Read(uint32(size), 0)
	require.True(t, ok)
	_, ok = m.Read(uint32(size), 1)
	require.False(t, ok)
}

func TestMemoryGrow(t *testing.T) {
	max := uint32(2)
	m := NewMemory(1, &max)

	prev := m.Grow(1)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(2), m.Size())

	failed := m.Grow(1)
	require.Equal(t, ^uint32(0), failed)
	require.Equal(t, uint32(2), m.Size(), "a rejected grow leaves memory unchanged")
}

func TestMemoryByteAndWordHelpersRoundTrip(t *testing.T) {
	m := NewMemory(1, nil)

	require.True(t, m.WriteByte(0, 0xab))
	b, ok := m.ReadByte(0)
	require.True(t, ok)
	require.Equal(t, byte(0xab), b)

	require.True(t, m.WriteUint16Le(2, 0x1234))
	u16, ok := m.ReadUint16Le(2)
	require.True(t, ok)
	require.Equal(t, uint16(0x1234), u16)

	require.True(t, m.WriteUint64Le(8, 0x0123456789abcdef))
	u64, ok := m.ReadUint64Le(8)
	require.True(t, ok)
	require.Equal(t, uint64(0x0123456789abcdef), u64)
}
