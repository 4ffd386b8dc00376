package wasm

import "github.com/nanowasm/nanowasm/api"

// Global is a single mutable-or-constant value cell.
type Global struct {
	Type    api.ValueType
	Mutable bool
	Value   uint64
}
