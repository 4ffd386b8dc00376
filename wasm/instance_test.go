package wasm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowasm/nanowasm"
	"github.com/nanowasm/nanowasm/api"
	"github.com/nanowasm/nanowasm/internal/fixtures"
	"github.com/nanowasm/nanowasm/ir"
	"github.com/nanowasm/nanowasm/wasm"
)

func TestInstantiateAndInvokeAdd(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "math", fixtures.AddModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	result, err := inst.InvokeTyped(ctx, "add", []wasm.Value{wasm.I32(2), wasm.I32(3)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(5), result.I32())
}

func TestInstantiateWithHostImport(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	store.AddHostFunction("host/math", "add", func(_ context.Context, _ *wasm.Instance, stack []uint64) error {
		stack[0] = api.EncodeU32(api.DecodeU32(stack[0]) + api.DecodeU32(stack[1]))
		return nil
	}, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32})

	inst, err := nanowasm.Instantiate(ctx, store, "hostmath", fixtures.HostAddModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	result, err := inst.InvokeTyped(ctx, "add", []wasm.Value{wasm.I32(4), wasm.I32(6)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(10), result.I32())
}

func TestDivByZeroTraps(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "div", fixtures.DivModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	_, err = inst.InvokeTyped(ctx, "div", []wasm.Value{wasm.I32(1), wasm.I32(0)}, api.ValueTypeI32)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapIntegerDivideByZero))
}

func TestPeekOutOfBoundsTraps(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "peek", fixtures.PeekModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	// A one-page memory is 65536 bytes; a 4-byte load at 65533 crosses the end.
	_, err = inst.InvokeTyped(ctx, "peek", []wasm.Value{wasm.I32(65533)}, api.ValueTypeI32)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess))

	result, err := inst.InvokeTyped(ctx, "peek", []wasm.Value{wasm.I32(0)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(0), result.I32())
}

func TestLoopSum(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "loop", fixtures.LoopSumModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	cases := []struct {
		n    int32
		want int32
	}{
		{0, 0},
		{1, 1},
		{10, 55},
	}
	for _, tc := range cases {
		result, err := inst.InvokeTyped(ctx, "loop_sum", []wasm.Value{wasm.I32(tc.n)}, api.ValueTypeI32)
		require.NoError(t, err)
		require.Equal(t, tc.want, result.I32(), "loop_sum(%d)", tc.n)
	}
}

func TestAbsTakesBothIfArms(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "abs", fixtures.AbsModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	cases := []struct {
		in   int32
		want int32
	}{
		{-5, 5},
		{7, 7},
		{0, 0},
		{-2147483647, 2147483647},
	}
	for _, tc := range cases {
		result, err := inst.InvokeTyped(ctx, "abs", []wasm.Value{wasm.I32(tc.in)}, api.ValueTypeI32)
		require.NoError(t, err)
		require.Equal(t, tc.want, result.I32(), "abs(%d)", tc.in)
	}
}

func TestRouteReportsBrTableArm(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "route", fixtures.RouteModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	cases := []struct {
		in   int32
		want int32
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{5, 3},
		{-1, 3},
	}
	for _, tc := range cases {
		result, err := inst.InvokeTyped(ctx, "route", []wasm.Value{wasm.I32(tc.in)}, api.ValueTypeI32)
		require.NoError(t, err)
		require.Equal(t, tc.want, result.I32(), "route(%d)", tc.in)
	}
}

// counterModule holds a mutable i32 global initialized to 40 by a constant
// expression; "bump(n)" adds n to it and returns the new value.
func counterModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
		Globals: []*wasm.GlobalDef{{
			Type: wasm.GlobalType{ValType: i32, Mutable: true},
			Init: ir.Code{{Op: ir.OpI32Const, I32: 40}, {Op: ir.OpEnd}},
		}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpGlobalGet, Index: 0},
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpI32Add},
				{Op: ir.OpGlobalSet, Index: 0},
				{Op: ir.OpGlobalGet, Index: 0},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{
			{Name: "bump", Type: api.ExternTypeFunc, Index: 0},
			{Name: "count", Type: api.ExternTypeGlobal, Index: 0},
		},
	}
}

func TestGlobalInitAndMutationPersistAcrossCalls(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "counter", counterModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	result, err := inst.InvokeTyped(ctx, "bump", []wasm.Value{wasm.I32(2)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(42), result.I32())

	result, err = inst.InvokeTyped(ctx, "bump", []wasm.Value{wasm.I32(3)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(45), result.I32())

	g, err := inst.ExportedGlobal("count")
	require.NoError(t, err)
	require.Equal(t, uint64(45), g.Value)
}

func TestLoggingModuleForwardsToHostImport(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	var seen []int32
	store.AddHostFunction("env", "log", func(_ context.Context, _ *wasm.Instance, stack []uint64) error {
		seen = append(seen, api.DecodeI32(stack[0]))
		return nil
	}, []api.ValueType{api.ValueTypeI32}, nil)

	inst, err := nanowasm.Instantiate(ctx, store, "logger", fixtures.LoggingModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	for _, v := range []int32{1, 2, 3} {
		_, err := inst.InvokeTyped(ctx, "report", []wasm.Value{wasm.I32(v)}, 0)
		require.NoError(t, err)
	}
	require.Equal(t, []int32{1, 2, 3}, seen)
}

func TestSelectModuleClassifyAndPick(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "select", fixtures.SelectModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	cases := []struct {
		in   int32
		want int32
	}{
		{0, 10},
		{1, 20},
		{2, 99},
		{-5, 99},
	}
	for _, tc := range cases {
		result, err := inst.InvokeTyped(ctx, "classify", []wasm.Value{wasm.I32(tc.in)}, api.ValueTypeI32)
		require.NoError(t, err)
		require.Equal(t, tc.want, result.I32(), "classify(%d)", tc.in)
	}

	picked, err := inst.InvokeTyped(ctx, "pick", []wasm.Value{wasm.I32(0), wasm.I32(11), wasm.I32(22)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(22), picked.I32())

	picked, err = inst.InvokeTyped(ctx, "pick", []wasm.Value{wasm.I32(1), wasm.I32(11), wasm.I32(22)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(11), picked.I32())
}

// dataStartModule has a one-page memory initialized two ways: a data
// segment placing bytes at offset 16, and a start function storing 7 at
// offset 0 during instantiation.
func dataStartModule() *wasm.Module {
	i32 := api.ValueTypeI32
	start := wasm.Index(1)
	return &wasm.Module{
		Types: []*wasm.FunctionType{
			{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
			{},
		},
		Memories: []*wasm.MemoryType{{Min: 1}},
		Functions: []*wasm.FunctionDef{
			{TypeIndex: 0, Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpI32Load},
				{Op: ir.OpEnd},
			}},
			{TypeIndex: 1, Code: ir.Code{
				{Op: ir.OpI32Const, I32: 0},
				{Op: ir.OpI32Const, I32: 7},
				{Op: ir.OpI32Store},
				{Op: ir.OpEnd},
			}},
		},
		Start: &start,
		Data: []*wasm.DataSegment{{
			MemoryIndex: 0,
			Offset:      ir.Code{{Op: ir.OpI32Const, I32: 16}, {Op: ir.OpEnd}},
			Init:        []byte{0x01, 0x02, 0x03, 0x04},
		}},
		Exports: []*wasm.Export{{Name: "peek", Type: api.ExternTypeFunc, Index: 0}},
	}
}

func TestDataSegmentAndStartFunctionApplyAtInstantiation(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "boot", dataStartModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	result, err := inst.InvokeTyped(ctx, "peek", []wasm.Value{wasm.I32(16)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(0x04030201), result.I32())

	result, err = inst.InvokeTyped(ctx, "peek", []wasm.Value{wasm.I32(0)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(7), result.I32())
}

func TestDuplicateInstanceNameRejected(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	_, err := nanowasm.Instantiate(ctx, store, "dup", fixtures.AddModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	_, err = nanowasm.Instantiate(ctx, store, "dup", fixtures.AddModule(), wasm.InvokeConfig{})
	require.ErrorIs(t, err, wasm.ErrModuleNameAlreadyInstantiated)
}

func TestEmptyInstanceNameReusable(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	_, err := nanowasm.Instantiate(ctx, store, "", fixtures.AddModule(), wasm.InvokeConfig{})
	require.NoError(t, err)
	_, err = nanowasm.Instantiate(ctx, store, "", fixtures.AddModule(), wasm.InvokeConfig{})
	require.NoError(t, err)
}
