package interpreter

import (
	"math"
	"math/bits"

	"github.com/nanowasm/nanowasm/api"
	"github.com/nanowasm/nanowasm/ir"
	"github.com/nanowasm/nanowasm/wasm"
)

// execArith dispatches every load/store, comparison, arithmetic and
// conversion opcode. It is split out from step's main switch purely to keep
// that one readable; the two together form a single logical dispatch.
func (m *vm) execArith(fr *frame, instr ir.Instruction) error {
	switch instr.Op {

	// --- loads ---
	case ir.OpI32Load:
		return m.load4(fr, instr, func(b []byte) uint64 { return api.EncodeI32(int32(leU32(b))) })
	case ir.OpI64Load:
		return m.load8(fr, instr, func(b []byte) uint64 { return leU64(b) })
	case ir.OpF32Load:
		return m.load4(fr, instr, func(b []byte) uint64 { return uint64(leU32(b)) })
	case ir.OpF64Load:
		return m.load8(fr, instr, func(b []byte) uint64 { return leU64(b) })
	case ir.OpI32Load8S:
		return m.load1(fr, instr, func(v byte) uint64 { return api.EncodeI32(int32(int8(v))) })
	case ir.OpI32Load8U:
		return m.load1(fr, instr, func(v byte) uint64 { return uint64(v) })
	case ir.OpI32Load16S:
		return m.load2(fr, instr, func(v uint16) uint64 { return api.EncodeI32(int32(int16(v))) })
	case ir.OpI32Load16U:
		return m.load2(fr, instr, func(v uint16) uint64 { return uint64(v) })
	case ir.OpI64Load8S:
		return m.load1(fr, instr, func(v byte) uint64 { return api.EncodeI64(int64(int8(v))) })
	case ir.OpI64Load8U:
		return m.load1(fr, instr, func(v byte) uint64 { return uint64(v) })
	case ir.OpI64Load16S:
		return m.load2(fr, instr, func(v uint16) uint64 { return api.EncodeI64(int64(int16(v))) })
	case ir.OpI64Load16U:
		return m.load2(fr, instr, func(v uint16) uint64 { return uint64(v) })
	case ir.OpI64Load32S:
		return m.load4(fr, instr, func(b []byte) uint64 { return api.EncodeI64(int64(int32(leU32(b)))) })
	case ir.OpI64Load32U:
		return m.load4(fr, instr, func(b []byte) uint64 { return uint64(leU32(b)) })

	// --- stores ---
	case ir.OpI32Store:
		return m.store4(fr, instr, u32(m.pop()))
	case ir.OpI64Store:
		return m.store8(fr, instr, m.pop())
	case ir.OpF32Store:
		return m.store4(fr, instr, u32(m.pop()))
	case ir.OpF64Store:
		return m.store8(fr, instr, m.pop())
	case ir.OpI32Store8:
		return m.store1(fr, instr, byte(m.pop()))
	case ir.OpI32Store16:
		return m.store2(fr, instr, uint16(m.pop()))
	case ir.OpI64Store8:
		return m.store1(fr, instr, byte(m.pop()))
	case ir.OpI64Store16:
		return m.store2(fr, instr, uint16(m.pop()))
	case ir.OpI64Store32:
		return m.store4(fr, instr, uint32(m.pop()))

	// --- i32 comparisons ---
	case ir.OpI32Eqz:
		return m.push(boolCell(i32(m.pop()) == 0))
	case ir.OpI32Eq:
		b, a := i32(m.pop()), i32(m.pop())
		return m.push(boolCell(a == b))
	case ir.OpI32Ne:
		b, a := i32(m.pop()), i32(m.pop())
		return m.push(boolCell(a != b))
	case ir.OpI32LtS:
		b, a := i32(m.pop()), i32(m.pop())
		return m.push(boolCell(a < b))
	case ir.OpI32LtU:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(boolCell(a < b))
	case ir.OpI32GtS:
		b, a := i32(m.pop()), i32(m.pop())
		return m.push(boolCell(a > b))
	case ir.OpI32GtU:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(boolCell(a > b))
	case ir.OpI32LeS:
		b, a := i32(m.pop()), i32(m.pop())
		return m.push(boolCell(a <= b))
	case ir.OpI32LeU:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(boolCell(a <= b))
	case ir.OpI32GeS:
		b, a := i32(m.pop()), i32(m.pop())
		return m.push(boolCell(a >= b))
	case ir.OpI32GeU:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(boolCell(a >= b))

	// --- i64 comparisons ---
	case ir.OpI64Eqz:
		return m.push(boolCell(int64(m.pop()) == 0))
	case ir.OpI64Eq:
		b, a := m.pop(), m.pop()
		return m.push(boolCell(a == b))
	case ir.OpI64Ne:
		b, a := m.pop(), m.pop()
		return m.push(boolCell(a != b))
	case ir.OpI64LtS:
		b, a := int64(m.pop()), int64(m.pop())
		return m.push(boolCell(a < b))
	case ir.OpI64LtU:
		b, a := m.pop(), m.pop()
		return m.push(boolCell(a < b))
	case ir.OpI64GtS:
		b, a := int64(m.pop()), int64(m.pop())
		return m.push(boolCell(a > b))
	case ir.OpI64GtU:
		b, a := m.pop(), m.pop()
		return m.push(boolCell(a > b))
	case ir.OpI64LeS:
		b, a := int64(m.pop()), int64(m.pop())
		return m.push(boolCell(a <= b))
	case ir.OpI64LeU:
		b, a := m.pop(), m.pop()
		return m.push(boolCell(a <= b))
	case ir.OpI64GeS:
		b, a := int64(m.pop()), int64(m.pop())
		return m.push(boolCell(a >= b))
	case ir.OpI64GeU:
		b, a := m.pop(), m.pop()
		return m.push(boolCell(a >= b))

	// --- float comparisons ---
	case ir.OpF32Eq:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(boolCell(a == b))
	case ir.OpF32Ne:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(boolCell(a != b))
	case ir.OpF32Lt:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(boolCell(a < b))
	case ir.OpF32Gt:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(boolCell(a > b))
	case ir.OpF32Le:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(boolCell(a <= b))
	case ir.OpF32Ge:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(boolCell(a >= b))
	case ir.OpF64Eq:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(boolCell(a == b))
	case ir.OpF64Ne:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(boolCell(a != b))
	case ir.OpF64Lt:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(boolCell(a < b))
	case ir.OpF64Gt:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(boolCell(a > b))
	case ir.OpF64Le:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(boolCell(a <= b))
	case ir.OpF64Ge:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(boolCell(a >= b))

	// --- i32 arithmetic ---
	case ir.OpI32Clz:
		return m.push(api.EncodeU32(uint32(bits.LeadingZeros32(u32(m.pop())))))
	case ir.OpI32Ctz:
		return m.push(api.EncodeU32(uint32(bits.TrailingZeros32(u32(m.pop())))))
	case ir.OpI32Popcnt:
		return m.push(api.EncodeU32(uint32(bits.OnesCount32(u32(m.pop())))))
	case ir.OpI32Add:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a + b))
	case ir.OpI32Sub:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a - b))
	case ir.OpI32Mul:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a * b))
	case ir.OpI32DivS:
		b, a := i32(m.pop()), i32(m.pop())
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		if a == math.MinInt32 && b == -1 {
			return wasm.NewTrap(wasm.TrapIntegerOverflow)
		}
		return m.push(api.EncodeI32(a / b))
	case ir.OpI32DivU:
		b, a := u32(m.pop()), u32(m.pop())
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		return m.push(api.EncodeU32(a / b))
	case ir.OpI32RemS:
		b, a := i32(m.pop()), i32(m.pop())
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		if a == math.MinInt32 && b == -1 {
			return m.push(api.EncodeI32(0))
		}
		return m.push(api.EncodeI32(a % b))
	case ir.OpI32RemU:
		b, a := u32(m.pop()), u32(m.pop())
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		return m.push(api.EncodeU32(a % b))
	case ir.OpI32And:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a & b))
	case ir.OpI32Or:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a | b))
	case ir.OpI32Xor:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a ^ b))
	case ir.OpI32Shl:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a << (b & 31)))
	case ir.OpI32ShrS:
		b, a := u32(m.pop()), i32(m.pop())
		return m.push(api.EncodeI32(a >> (b & 31)))
	case ir.OpI32ShrU:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(a >> (b & 31)))
	case ir.OpI32Rotl:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(rotl32(a, b)))
	case ir.OpI32Rotr:
		b, a := u32(m.pop()), u32(m.pop())
		return m.push(api.EncodeU32(rotr32(a, b)))

	// --- i64 arithmetic ---
	case ir.OpI64Clz:
		return m.push(uint64(bits.LeadingZeros64(m.pop())))
	case ir.OpI64Ctz:
		return m.push(uint64(bits.TrailingZeros64(m.pop())))
	case ir.OpI64Popcnt:
		return m.push(uint64(bits.OnesCount64(m.pop())))
	case ir.OpI64Add:
		b, a := m.pop(), m.pop()
		return m.push(a + b)
	case ir.OpI64Sub:
		b, a := m.pop(), m.pop()
		return m.push(a - b)
	case ir.OpI64Mul:
		b, a := m.pop(), m.pop()
		return m.push(a * b)
	case ir.OpI64DivS:
		b, a := int64(m.pop()), int64(m.pop())
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		if a == math.MinInt64 && b == -1 {
			return wasm.NewTrap(wasm.TrapIntegerOverflow)
		}
		return m.push(api.EncodeI64(a / b))
	case ir.OpI64DivU:
		b, a := m.pop(), m.pop()
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		return m.push(a / b)
	case ir.OpI64RemS:
		b, a := int64(m.pop()), int64(m.pop())
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		if a == math.MinInt64 && b == -1 {
			return m.push(api.EncodeI64(0))
		}
		return m.push(api.EncodeI64(a % b))
	case ir.OpI64RemU:
		b, a := m.pop(), m.pop()
		if b == 0 {
			return wasm.NewTrap(wasm.TrapIntegerDivideByZero)
		}
		return m.push(a % b)
	case ir.OpI64And:
		b, a := m.pop(), m.pop()
		return m.push(a & b)
	case ir.OpI64Or:
		b, a := m.pop(), m.pop()
		return m.push(a | b)
	case ir.OpI64Xor:
		b, a := m.pop(), m.pop()
		return m.push(a ^ b)
	case ir.OpI64Shl:
		b, a := m.pop(), m.pop()
		return m.push(a << (b & 63))
	case ir.OpI64ShrS:
		b, a := m.pop(), int64(m.pop())
		return m.push(uint64(a >> (b & 63)))
	case ir.OpI64ShrU:
		b, a := m.pop(), m.pop()
		return m.push(a >> (b & 63))
	case ir.OpI64Rotl:
		b, a := m.pop(), m.pop()
		return m.push(rotl64(a, b))
	case ir.OpI64Rotr:
		b, a := m.pop(), m.pop()
		return m.push(rotr64(a, b))

	// --- f32 arithmetic ---
	case ir.OpF32Abs:
		return m.push(api.EncodeF32(float32(math.Abs(float64(f32v(m.pop()))))))
	case ir.OpF32Neg:
		return m.push(api.EncodeF32(-f32v(m.pop())))
	case ir.OpF32Ceil:
		return m.push(api.EncodeF32(float32(math.Ceil(float64(f32v(m.pop()))))))
	case ir.OpF32Floor:
		return m.push(api.EncodeF32(float32(math.Floor(float64(f32v(m.pop()))))))
	case ir.OpF32Trunc:
		return m.push(api.EncodeF32(float32(math.Trunc(float64(f32v(m.pop()))))))
	case ir.OpF32Nearest:
		return m.push(api.EncodeF32(wasmCompatNearest32(f32v(m.pop()))))
	case ir.OpF32Sqrt:
		return m.push(api.EncodeF32(float32(math.Sqrt(float64(f32v(m.pop()))))))
	case ir.OpF32Add:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(a + b))
	case ir.OpF32Sub:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(a - b))
	case ir.OpF32Mul:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(a * b))
	case ir.OpF32Div:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(a / b))
	case ir.OpF32Min:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(wasmCompatMin32(a, b)))
	case ir.OpF32Max:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(wasmCompatMax32(a, b)))
	case ir.OpF32Copysign:
		b, a := f32v(m.pop()), f32v(m.pop())
		return m.push(api.EncodeF32(float32(math.Copysign(float64(a), float64(b)))))

	// --- f64 arithmetic ---
	case ir.OpF64Abs:
		return m.push(api.EncodeF64(math.Abs(f64v(m.pop()))))
	case ir.OpF64Neg:
		return m.push(api.EncodeF64(-f64v(m.pop())))
	case ir.OpF64Ceil:
		return m.push(api.EncodeF64(math.Ceil(f64v(m.pop()))))
	case ir.OpF64Floor:
		return m.push(api.EncodeF64(math.Floor(f64v(m.pop()))))
	case ir.OpF64Trunc:
		return m.push(api.EncodeF64(math.Trunc(f64v(m.pop()))))
	case ir.OpF64Nearest:
		return m.push(api.EncodeF64(wasmCompatNearest64(f64v(m.pop()))))
	case ir.OpF64Sqrt:
		return m.push(api.EncodeF64(math.Sqrt(f64v(m.pop()))))
	case ir.OpF64Add:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(a + b))
	case ir.OpF64Sub:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(a - b))
	case ir.OpF64Mul:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(a * b))
	case ir.OpF64Div:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(a / b))
	case ir.OpF64Min:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(wasmCompatMin64(a, b)))
	case ir.OpF64Max:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(wasmCompatMax64(a, b)))
	case ir.OpF64Copysign:
		b, a := f64v(m.pop()), f64v(m.pop())
		return m.push(api.EncodeF64(math.Copysign(a, b)))

	// --- conversions ---
	case ir.OpI32WrapI64:
		return m.push(api.EncodeU32(uint32(m.pop())))
	case ir.OpI32TruncF32S:
		v, err := truncToI32(float64(f32v(m.pop())))
		if err != nil {
			return err
		}
		return m.push(api.EncodeI32(v))
	case ir.OpI32TruncF32U:
		v, err := truncToU32(float64(f32v(m.pop())))
		if err != nil {
			return err
		}
		return m.push(api.EncodeU32(v))
	case ir.OpI32TruncF64S:
		v, err := truncToI32(f64v(m.pop()))
		if err != nil {
			return err
		}
		return m.push(api.EncodeI32(v))
	case ir.OpI32TruncF64U:
		v, err := truncToU32(f64v(m.pop()))
		if err != nil {
			return err
		}
		return m.push(api.EncodeU32(v))
	case ir.OpI64ExtendI32S:
		return m.push(api.EncodeI64(int64(i32(m.pop()))))
	case ir.OpI64ExtendI32U:
		return m.push(uint64(u32(m.pop())))
	case ir.OpI64TruncF32S:
		v, err := truncToI64(float64(f32v(m.pop())))
		if err != nil {
			return err
		}
		return m.push(api.EncodeI64(v))
	case ir.OpI64TruncF32U:
		v, err := truncToU64(float64(f32v(m.pop())))
		if err != nil {
			return err
		}
		return m.push(v)
	case ir.OpI64TruncF64S:
		v, err := truncToI64(f64v(m.pop()))
		if err != nil {
			return err
		}
		return m.push(api.EncodeI64(v))
	case ir.OpI64TruncF64U:
		v, err := truncToU64(f64v(m.pop()))
		if err != nil {
			return err
		}
		return m.push(v)
	case ir.OpF32ConvertI32S:
		return m.push(api.EncodeF32(float32(i32(m.pop()))))
	case ir.OpF32ConvertI32U:
		return m.push(api.EncodeF32(float32(u32(m.pop()))))
	case ir.OpF32ConvertI64S:
		return m.push(api.EncodeF32(float32(int64(m.pop()))))
	case ir.OpF32ConvertI64U:
		return m.push(api.EncodeF32(float32(m.pop())))
	case ir.OpF32DemoteF64:
		return m.push(api.EncodeF32(float32(f64v(m.pop()))))
	case ir.OpF64ConvertI32S:
		return m.push(api.EncodeF64(float64(i32(m.pop()))))
	case ir.OpF64ConvertI32U:
		return m.push(api.EncodeF64(float64(u32(m.pop()))))
	case ir.OpF64ConvertI64S:
		return m.push(api.EncodeF64(float64(int64(m.pop()))))
	case ir.OpF64ConvertI64U:
		return m.push(api.EncodeF64(float64(m.pop())))
	case ir.OpF64PromoteF32:
		return m.push(api.EncodeF64(float64(f32v(m.pop()))))
	case ir.OpI32ReinterpretF32:
		return m.push(m.pop())
	case ir.OpI64ReinterpretF64:
		return m.push(m.pop())
	case ir.OpF32ReinterpretI32:
		return m.push(m.pop())
	case ir.OpF64ReinterpretI64:
		return m.push(m.pop())
	case ir.OpI32Extend8S:
		return m.push(api.EncodeI32(int32(int8(u32(m.pop())))))
	case ir.OpI32Extend16S:
		return m.push(api.EncodeI32(int32(int16(u32(m.pop())))))
	case ir.OpI64Extend8S:
		return m.push(api.EncodeI64(int64(int8(m.pop()))))
	case ir.OpI64Extend16S:
		return m.push(api.EncodeI64(int64(int16(m.pop()))))
	case ir.OpI64Extend32S:
		return m.push(api.EncodeI64(int64(int32(m.pop()))))
	}
	return nil
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func effectiveAddress(instr ir.Instruction, base uint32) uint64 {
	return uint64(base) + uint64(instr.Offset)
}

// boundedAddr validates addr+size against mem's current length using 64-bit
// arithmetic throughout, so an offset large enough to overflow a uint32
// traps instead of silently wrapping into an in-bounds access.
func boundedAddr(mem *wasm.Memory, addr uint64, size uint64) (uint32, bool) {
	if addr+size > uint64(len(mem.Buffer)) {
		return 0, false
	}
	return uint32(addr), true
}

func (m *vm) load1(fr *frame, instr ir.Instruction, decode func(byte) uint64) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 1)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	return m.push(decode(mem.Buffer[a]))
}

func (m *vm) load2(fr *frame, instr ir.Instruction, decode func(uint16) uint64) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 2)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	v, _ := mem.ReadUint16Le(a)
	return m.push(decode(v))
}

func (m *vm) load4(fr *frame, instr ir.Instruction, decode func([]byte) uint64) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 4)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	b, _ := mem.Read(a, 4)
	return m.push(decode(b))
}

func (m *vm) load8(fr *frame, instr ir.Instruction, decode func([]byte) uint64) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 8)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	b, _ := mem.Read(a, 8)
	return m.push(decode(b))
}

func (m *vm) store1(fr *frame, instr ir.Instruction, v byte) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 1)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	mem.WriteByte(a, v)
	return nil
}

func (m *vm) store2(fr *frame, instr ir.Instruction, v uint16) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 2)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	mem.WriteUint16Le(a, v)
	return nil
}

func (m *vm) store4(fr *frame, instr ir.Instruction, v uint32) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 4)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	mem.WriteUint32Le(a, v)
	return nil
}

func (m *vm) store8(fr *frame, instr ir.Instruction, v uint64) error {
	mem, err := m.currentMemory(fr)
	if err != nil {
		return err
	}
	addr := effectiveAddress(instr, u32(m.pop()))
	a, ok := boundedAddr(mem, addr, 8)
	if !ok {
		return wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess)
	}
	mem.WriteUint64Le(a, v)
	return nil
}
