package interpreter

import (
	"math"
	"math/bits"

	"github.com/nanowasm/nanowasm/wasm"
)

// wasmCompatMin and wasmCompatMax implement Wasm's NaN-propagating,
// signed-zero-aware float min/max: if either operand is NaN the result is
// NaN, and min(-0,0)==-0 / max(-0,0)==0 regardless of argument order. The
// float32 variants widen both operands to float64 and narrow the float64
// result, so a NaN result is always the canonical NaN, whatever the
// operands' payloads.
func wasmCompatMin64(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) || math.Signbit(b) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	return math.Min(a, b)
}

func wasmCompatMax64(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) && math.Signbit(b) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	return math.Max(a, b)
}

func wasmCompatMin32(a, b float32) float32 {
	return float32(wasmCompatMin64(float64(a), float64(b)))
}

func wasmCompatMax32(a, b float32) float32 {
	return float32(wasmCompatMax64(float64(a), float64(b)))
}

// wasmCompatNearest rounds to the nearest integer, ties to even, preserving
// NaN payload/sign and infinities the way the IEEE-754 roundToIntegral
// operation does. math.RoundToEven already implements ties-to-even for
// finite values; it is a no-op for NaN/Inf so no extra guard is needed.
func wasmCompatNearest64(f float64) float64 { return math.RoundToEven(f) }
func wasmCompatNearest32(f float32) float32 { return float32(math.RoundToEven(float64(f))) }

// truncToI32 converts f to a signed 32-bit integer, trapping on NaN or
// out-of-range values per Wasm's trunc_s semantics.
func truncToI32(f float64) (int32, error) {
	if math.IsNaN(f) {
		return 0, wasm.NewTrap(wasm.TrapInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < -2147483648 || t >= 2147483648 {
		return 0, wasm.NewTrap(wasm.TrapIntegerOverflow)
	}
	return int32(t), nil
}

func truncToU32(f float64) (uint32, error) {
	if math.IsNaN(f) {
		return 0, wasm.NewTrap(wasm.TrapInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < 0 || t >= 4294967296 {
		return 0, wasm.NewTrap(wasm.TrapIntegerOverflow)
	}
	return uint32(t), nil
}

func truncToI64(f float64) (int64, error) {
	if math.IsNaN(f) {
		return 0, wasm.NewTrap(wasm.TrapInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < -9223372036854775808 || t >= 9223372036854775808 {
		return 0, wasm.NewTrap(wasm.TrapIntegerOverflow)
	}
	return int64(t), nil
}

func truncToU64(f float64) (uint64, error) {
	if math.IsNaN(f) {
		return 0, wasm.NewTrap(wasm.TrapInvalidConversionToInteger)
	}
	t := math.Trunc(f)
	if t < 0 || t >= 18446744073709551616 {
		return 0, wasm.NewTrap(wasm.TrapIntegerOverflow)
	}
	return uint64(t), nil
}

func rotl32(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, int(n&31)) }
func rotr32(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, -int(n&31)) }
func rotl64(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, int(n&63)) }
func rotr64(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, -int(n&63)) }

func boolToI32(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
