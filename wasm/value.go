package wasm

import "github.com/nanowasm/nanowasm/api"

// Value is a single typed operand, used at the Instance.InvokeTyped
// boundary where static types are checked before execution begins. Once
// past that boundary everything is an untyped 64-bit cell.
type Value struct {
	Type api.ValueType
	bits uint64
}

func I32(v int32) Value     { return Value{Type: api.ValueTypeI32, bits: api.EncodeI32(v)} }
func I64(v int64) Value     { return Value{Type: api.ValueTypeI64, bits: api.EncodeI64(v)} }
func F32(v float32) Value   { return Value{Type: api.ValueTypeF32, bits: api.EncodeF32(v)} }
func F64(v float64) Value   { return Value{Type: api.ValueTypeF64, bits: api.EncodeF64(v)} }

func (v Value) I32() int32     { return api.DecodeI32(v.bits) }
func (v Value) I64() int64     { return api.DecodeI64(v.bits) }
func (v Value) F32() float32   { return api.DecodeF32(v.bits) }
func (v Value) F64() float64   { return api.DecodeF64(v.bits) }
func (v Value) Bits() uint64   { return v.bits }

// valueFromBits reinterprets a raw cell as the given static type.
func valueFromBits(t api.ValueType, bits uint64) Value {
	return Value{Type: t, bits: bits}
}
