package wasm

// NullFuncHandle marks a table element that has no function reference.
const NullFuncHandle = ^FuncHandle(0)

// Table is a resizable array of function references.
type Table struct {
	Min uint32
	Max *uint32

	Elements []FuncHandle
}

// NewTable allocates a table of min elements, all null, bounded by max.
func NewTable(min uint32, max *uint32) *Table {
	t := &Table{Min: min, Max: max, Elements: make([]FuncHandle, min)}
	for i := range t.Elements {
		t.Elements[i] = NullFuncHandle
	}
	return t
}

// Size returns the current number of elements.
func (t *Table) Size() uint32 { return uint32(len(t.Elements)) }

// Get returns the handle at i, or ok=false if i is out of range.
func (t *Table) Get(i uint32) (FuncHandle, bool) {
	if i >= uint32(len(t.Elements)) {
		return 0, false
	}
	return t.Elements[i], true
}

// Set stores h at i, returning false if i is out of range.
func (t *Table) Set(i uint32, h FuncHandle) bool {
	if i >= uint32(len(t.Elements)) {
		return false
	}
	t.Elements[i] = h
	return true
}

// Grow appends n elements initialized to fill, rejecting growth past Max.
// It returns the size prior to growth, or growFailed if rejected.
func (t *Table) Grow(n uint32, fill FuncHandle) uint32 {
	cur := t.Size()
	max := ^uint32(0)
	if t.Max != nil {
		max = *t.Max
	}
	if uint64(cur)+uint64(n) > uint64(max) {
		return growFailed
	}
	for i := uint32(0); i < n; i++ {
		t.Elements = append(t.Elements, fill)
	}
	return cur
}
