package wasm

import "encoding/binary"

const (
	// MemoryPageSizeInBits is log2 of the page size.
	MemoryPageSizeInBits = 16
	// MemoryPageSize is the number of bytes in one page: 65536.
	MemoryPageSize = uint32(1) << MemoryPageSizeInBits
	// MemoryMaxPages is the hard ceiling on pages addressable by a 32-bit
	// effective address: 2^32 bytes / 2^16 bytes-per-page.
	MemoryMaxPages = uint32(1) << (32 - MemoryPageSizeInBits)
	// growFailed is returned by Grow when the request cannot be satisfied.
	growFailed = ^uint32(0)
)

// Memory is a linear byte buffer with page-granular growth and
// bounds-checked little-endian load/store helpers.
type Memory struct {
	Min uint32
	Max *uint32

	Buffer []byte
}

// NewMemory allocates a zeroed buffer of min pages, bounded by max (if set).
func NewMemory(min uint32, max *uint32) *Memory {
	return &Memory{Min: min, Max: max, Buffer: make([]byte, uint64(min)*uint64(MemoryPageSize))}
}

// PageSize returns the current size of the memory in pages.
func (m *Memory) PageSize() uint32 {
	return uint32(len(m.Buffer) / int(MemoryPageSize))
}

// Size is PageSize, named to match the "memory.size" instruction it backs.
func (m *Memory) Size() uint32 { return m.PageSize() }

// Grow adds delta pages if the result does not exceed Max (or MemoryMaxPages
// when Max is unset). It returns the page count prior to growth, or the
// sentinel growFailed (all bits set) if the request was rejected; on
// rejection the memory is left unchanged.
func (m *Memory) Grow(delta uint32) uint32 {
	cur := m.PageSize()
	max := MemoryMaxPages
	if m.Max != nil {
		max = *m.Max
	}
	if uint64(cur)+uint64(delta) > uint64(max) {
		return growFailed
	}
	m.Buffer = append(m.Buffer, make([]byte, uint64(delta)*uint64(MemoryPageSize))...)
	return cur
}

// inBounds reports whether a k-byte access at offset e is valid.
func (m *Memory) inBounds(e uint64, k uint64) bool {
	return e+k <= uint64(len(m.Buffer))
}

func (m *Memory) ReadByte(offset uint32) (byte, bool) {
	if !m.inBounds(uint64(offset), 1) {
		return 0, false
	}
	return m.Buffer[offset], true
}

func (m *Memory) WriteByte(offset uint32, v byte) bool {
	if !m.inBounds(uint64(offset), 1) {
		return false
	}
	m.Buffer[offset] = v
	return true
}

func (m *Memory) ReadUint16Le(offset uint32) (uint16, bool) {
	if !m.inBounds(uint64(offset), 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.Buffer[offset:]), true
}

func (m *Memory) WriteUint16Le(offset uint32, v uint16) bool {
	if !m.inBounds(uint64(offset), 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.Buffer[offset:], v)
	return true
}

func (m *Memory) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.inBounds(uint64(offset), 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Buffer[offset:]), true
}

func (m *Memory) WriteUint32Le(offset uint32, v uint32) bool {
	if !m.inBounds(uint64(offset), 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Buffer[offset:], v)
	return true
}

func (m *Memory) ReadUint64Le(offset uint32) (uint64, bool) {
	if !m.inBounds(uint64(offset), 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.Buffer[offset:]), true
}

func (m *Memory) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.inBounds(uint64(offset), 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.Buffer[offset:], v)
	return true
}

// Read returns a write-through view of byteCount bytes starting at offset.
func (m *Memory) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.inBounds(uint64(offset), uint64(byteCount)) {
		return nil, false
	}
	return m.Buffer[offset : offset+byteCount], true
}

// Write copies v into the buffer starting at offset.
func (m *Memory) Write(offset uint32, v []byte) bool {
	if !m.inBounds(uint64(offset), uint64(len(v))) {
		return false
	}
	copy(m.Buffer[offset:], v)
	return true
}
