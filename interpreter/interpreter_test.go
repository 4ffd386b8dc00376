package interpreter_test

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

func recurseModule() *wasm.Module {
	return &wasm.Module{
		Types: []*wasm.FunctionType{{}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpCall, FuncIndex: 0},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{{Name: "recurse", Type: api.ExternTypeFunc, Index: 0}},
	}
}

func nestedBlocksModule() *wasm.Module {
	return &wasm.Module{
		Types: []*wasm.FunctionType{{}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpBlock, ContinuationPC: 4},
				{Op: ir.OpBlock, ContinuationPC: 3},
				{Op: ir.OpEnd},
				{Op: ir.OpEnd},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{{Name: "nest", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// callIndirectModule exports "add" (the indirect-call target, table slot 0),
// "caller(idx,a,b) i32" which call_indirects through table slot idx expecting
// add's signature, and a table of 2 slots with only slot 0 initialized.
func callIndirectModule() *wasm.Module {
	i32 := api.ValueTypeI32
	addType := &wasm.FunctionType{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}}
	callerType := &wasm.FunctionType{Params: []api.ValueType{i32, i32, i32}, Results: []api.ValueType{i32}}
	zero := wasm.Index(0)

	return &wasm.Module{
		Types:  []*wasm.FunctionType{addType, callerType},
		Tables: []*wasm.TableType{{Min: 2}},
		Functions: []*wasm.FunctionDef{
			{TypeIndex: 0, Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpLocalGet, Index: 1},
				{Op: ir.OpI32Add},
				{Op: ir.OpEnd},
			}},
			{TypeIndex: 1, Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 1},
				{Op: ir.OpLocalGet, Index: 2},
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpCallIndirect, TableIndex: 0, TypeIndex: 0},
				{Op: ir.OpEnd},
			}},
		},
		Elements: []*wasm.ElementSegment{{
			TableIndex: 0,
			Offset:     ir.Code{{Op: ir.OpI32Const, I32: 0}, {Op: ir.OpEnd}},
			Init:       []*wasm.Index{&zero},
		}},
		Exports: []*wasm.Export{
			{Name: "add", Type: api.ExternTypeFunc, Index: 0},
			{Name: "caller", Type: api.ExternTypeFunc, Index: 1},
		},
	}
}

func TestOperandStackOverflowTraps(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "add", fixtures.AddModule(), wasm.InvokeConfig{OperandStackSize: 1})
	require.NoError(t, err)

	_, err = inst.InvokeTyped(ctx, "add", []wasm.Value{wasm.I32(1), wasm.I32(2)}, api.ValueTypeI32)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapStackOverflow))
}

func TestControlStackOverflowOnUnboundedRecursion(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "recurse", recurseModule(), wasm.InvokeConfig{ControlStackSize: 4})
	require.NoError(t, err)

	err = inst.InvokeDynamic(ctx, "recurse", nil, nil)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapStackOverflow))

	var trap *wasm.TrapError
	require.ErrorAs(t, err, &trap)
	require.NotEmpty(t, trap.Frames)
}

func TestLabelStackOverflowOnDeepNesting(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "nest", nestedBlocksModule(), wasm.InvokeConfig{LabelStackSize: 2})
	require.NoError(t, err)

	err = inst.InvokeDynamic(ctx, "nest", nil, nil)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapStackOverflow))
}

func TestCallIndirectSuccess(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "ci", callIndirectModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	result, err := inst.InvokeTyped(ctx, "caller", []wasm.Value{wasm.I32(0), wasm.I32(3), wasm.I32(4)}, api.ValueTypeI32)
	require.NoError(t, err)
	require.Equal(t, int32(7), result.I32())
}

func TestCallIndirectUninitializedElementTraps(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "ci", callIndirectModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	_, err = inst.InvokeTyped(ctx, "caller", []wasm.Value{wasm.I32(1), wasm.I32(3), wasm.I32(4)}, api.ValueTypeI32)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapUninitializedElement))
}

func TestCallIndirectOutOfBoundsTableIndexTraps(t *testing.T) {
	ctx := context.Background()
	store := nanowasm.NewStore(nanowasm.Config{})

	inst, err := nanowasm.Instantiate(ctx, store, "ci", callIndirectModule(), wasm.InvokeConfig{})
	require.NoError(t, err)

	_, err = inst.InvokeTyped(ctx, "caller", []wasm.Value{wasm.I32(5), wasm.I32(3), wasm.I32(4)}, api.ValueTypeI32)
	require.ErrorIs(t, err, wasm.NewTrap(wasm.TrapUndefinedElement))
}
