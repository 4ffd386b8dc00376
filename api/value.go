// Package api holds the value-level constants and conversions shared by
// every layer of the runtime: the store, the instance bindings and the
// interpreter all speak in terms of these types.
package api

import "math"

// ValueType describes a numeric or reference kind used on the operand stack.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = 0x7f
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64 ValueType = 0x7e
	// ValueTypeF32 is a 32-bit floating point number.
	ValueTypeF32 ValueType = 0x7d
	// ValueTypeF64 is a 64-bit floating point number.
	ValueTypeF64 ValueType = 0x7c
	// ValueTypeFuncref is an opaque handle to a function, used by tables.
	ValueTypeFuncref ValueType = 0x70
	// ValueTypeExternref is an opaque handle to a host-provided object.
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the WebAssembly text format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// ExternType classifies an import or export.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternTypeName returns the text format field name for et.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return "unknown"
}

// Every value on the operand stack occupies one 64-bit cell. Narrower types
// are bit-cast on push and truncated on pop; the encode/decode pairs below
// are the only place that conversion happens.

// EncodeI32 zero-extends a signed 32-bit value into a stack cell.
func EncodeI32(v int32) uint64 { return uint64(uint32(v)) }

// DecodeI32 truncates a stack cell back to its signed 32-bit value.
func DecodeI32(v uint64) int32 { return int32(uint32(v)) }

// EncodeU32 zero-extends an unsigned 32-bit value into a stack cell.
func EncodeU32(v uint32) uint64 { return uint64(v) }

// DecodeU32 truncates a stack cell back to its unsigned 32-bit value.
func DecodeU32(v uint64) uint32 { return uint32(v) }

// EncodeI64 is the identity conversion for the 64-bit integer type.
func EncodeI64(v int64) uint64 { return uint64(v) }

// DecodeI64 is the identity conversion for the 64-bit integer type.
func DecodeI64(v uint64) int64 { return int64(v) }

// EncodeF32 bit-casts a float32 into a stack cell via its IEEE 754 bits.
func EncodeF32(v float32) uint64 { return uint64(math.Float32bits(v)) }

// DecodeF32 bit-casts a stack cell back into a float32.
func DecodeF32(v uint64) float32 { return math.Float32frombits(uint32(v)) }

// EncodeF64 bit-casts a float64 into a stack cell via its IEEE 754 bits.
func EncodeF64(v float64) uint64 { return math.Float64bits(v) }

// DecodeF64 bit-casts a stack cell back into a float64.
func DecodeF64(v uint64) float64 { return math.Float64frombits(v) }

// EncodeHandle packs an opaque 32-bit handle (funcref/externref) into a cell.
func EncodeHandle(v uint32) uint64 { return uint64(v) }

// DecodeHandle unpacks an opaque 32-bit handle from a cell.
func DecodeHandle(v uint64) uint32 { return uint32(v) }
