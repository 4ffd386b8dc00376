package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowasm/nanowasm/wasm"
)

func TestWasmCompatMinMaxNaNPropagates(t *testing.T) {
	require.True(t, math.IsNaN(wasmCompatMin64(math.NaN(), 1)))
	require.True(t, math.IsNaN(wasmCompatMin64(1, math.NaN())))
	require.True(t, math.IsNaN(wasmCompatMax64(math.NaN(), 1)))
	require.True(t, math.IsNaN(float64(wasmCompatMin32(float32(math.NaN()), 1))))
}

func TestWasmCompatMinMaxSignedZero(t *testing.T) {
	negZero := math.Copysign(0, -1)

	require.Equal(t, negZero, wasmCompatMin64(0, negZero))
	require.Equal(t, negZero, wasmCompatMin64(negZero, 0))
	require.Equal(t, float64(0), wasmCompatMax64(0, negZero))
	require.True(t, math.Signbit(wasmCompatMax64(negZero, negZero)))
	require.False(t, math.Signbit(wasmCompatMax64(0, 0)))
}

func TestWasmCompatMinMaxOrdinary(t *testing.T) {
	require.Equal(t, 1.0, wasmCompatMin64(1, 2))
	require.Equal(t, 2.0, wasmCompatMax64(1, 2))
}

func TestWasmCompatNearestTiesToEven(t *testing.T) {
	require.Equal(t, 2.0, wasmCompatNearest64(2.5))
	require.Equal(t, 2.0, wasmCompatNearest64(1.5))
	require.Equal(t, -2.0, wasmCompatNearest64(-2.5))
	require.Equal(t, float32(2), wasmCompatNearest32(2.5))
}

func TestRotl32Rotr32RoundTrip(t *testing.T) {
	v := uint32(0x12345678)
	require.Equal(t, v, rotr32(rotl32(v, 5), 5))
	require.Equal(t, uint32(0x23456781), rotl32(0x12345678, 8))
}

func TestRotl64Rotr64RoundTrip(t *testing.T) {
	v := uint64(0x0123456789abcdef)
	require.Equal(t, v, rotr64(rotl64(v, 17), 17))
}

func TestTruncToI32TrapsOnNaNAndOverflow(t *testing.T) {
	_, err := truncToI32(math.NaN())
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapInvalidConversionToInteger))

	_, err = truncToI32(2147483648)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapIntegerOverflow))

	v, err := truncToI32(3.9)
	require.NoError(t, err)
	require.Equal(t, int32(3), v)
}

func TestTruncToU64TrapsOnNegativeAndOverflow(t *testing.T) {
	_, err := truncToU64(-1)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapIntegerOverflow))

	_, err = truncToU64(math.NaN())
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapInvalidConversionToInteger))

	v, err := truncToU64(18446744073709549568.0)
	require.NoError(t, err)
	require.Greater(t, v, uint64(0))
}
