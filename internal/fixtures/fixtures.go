// Package fixtures hand-builds the small Wasm modules used by the example
// program and by the interpreter's own tests: since module decoding is out
// of scope for this repository, there is no .wasm binary to load these
// from, so their ir.Code is written out directly, the way a decoder would
// produce it.
package fixtures

import (
	"github.com/nanowasm/nanowasm/api"
	"github.com/nanowasm/nanowasm/ir"
	"github.com/nanowasm/nanowasm/wasm"
)

// AddModule exports "add(i32,i32) i32": local.get 0; local.get 1; i32.add; end.
func AddModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpLocalGet, Index: 1},
				{Op: ir.OpI32Add},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{{Name: "add", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// HostAddModule imports host/math.add and re-exports that import directly as
// "add(i32,i32) i32", the host-implemented counterpart of AddModule. It
// defines no functions of its own.
func HostAddModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}}},
		Imports: []*wasm.Import{
			{Module: "host/math", Name: "add", Type: api.ExternTypeFunc, DescFunc: 0},
		},
		Exports: []*wasm.Export{{Name: "add", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// DivModule exports "div(i32,i32) i32"; dividing by zero traps with
// TrapIntegerDivideByZero.
func DivModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpLocalGet, Index: 1},
				{Op: ir.OpI32DivS},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{{Name: "div", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// PeekModule exports a single-page memory "mem" and "peek(i32) i32", an
// i32.load at the given address; an address whose 4-byte load would cross
// the page boundary traps with TrapOutOfBoundsMemoryAccess.
func PeekModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types:    []*wasm.FunctionType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
		Memories: []*wasm.MemoryType{{Min: 1}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpI32Load},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{
			{Name: "peek", Type: api.ExternTypeFunc, Index: 0},
			{Name: "mem", Type: api.ExternTypeMemory, Index: 0},
		},
	}
}

// LoopSumModule exports "loop_sum(i32) i32" summing 1..=n with a loop:
//
//	local 0 = n (counter, counts down), local 1 = accumulator
//	block
//	  br_if 0 (local 0 == 0)   ;; nothing to sum
//	  loop
//	    local 1 += local 0
//	    local 0 -= 1
//	    br_if 0 (local 0 != 0)
//	  end
//	end
//	local.get 1
func LoopSumModule() *wasm.Module {
	i32 := api.ValueTypeI32
	code := ir.Code{
		{Op: ir.OpBlock, ContinuationPC: 16},
		{Op: ir.OpLocalGet, Index: 0},
		{Op: ir.OpI32Eqz},
		{Op: ir.OpBrIf, Depth: 0},
		{Op: ir.OpLoop, ResultArity: 0, ContinuationPC: 5}, // continuation: loop body head, index 5
		{Op: ir.OpLocalGet, Index: 1},
		{Op: ir.OpLocalGet, Index: 0},
		{Op: ir.OpI32Add},
		{Op: ir.OpLocalSet, Index: 1},
		{Op: ir.OpLocalGet, Index: 0},
		{Op: ir.OpI32Const, I32: 1},
		{Op: ir.OpI32Sub},
		{Op: ir.OpLocalTee, Index: 0},
		{Op: ir.OpBrIf, Depth: 0},
		{Op: ir.OpEnd}, // closes the loop
		{Op: ir.OpEnd}, // closes the guard block
		{Op: ir.OpLocalGet, Index: 1},
		{Op: ir.OpEnd},
	}
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex:  0,
			LocalTypes: []api.ValueType{i32}, // local 1: accumulator, starts at 0
			Code:       code,
		}},
		Exports: []*wasm.Export{{Name: "loop_sum", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// AbsModule exports "abs(i32) i32", negating its argument through both arms
// of an if/else:
//
//	local.get 0
//	i32.const 0
//	i32.lt_s
//	if (result i32)
//	  i32.const 0
//	  local.get 0
//	  i32.sub
//	else
//	  local.get 0
//	end
func AbsModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpI32Const, I32: 0},
				{Op: ir.OpI32LtS},
				{Op: ir.OpIf, ResultArity: 1, ContinuationPC: 10, ElsePC: 8},
				{Op: ir.OpI32Const, I32: 0},
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpI32Sub},
				{Op: ir.OpElse},
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpEnd}, // closes the if
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{{Name: "abs", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// RouteModule exports "route(i32) i32", which reports the br_table arm the
// selector landed on: targets [0,1,2], default 3, so route(1) = 1 and any
// out-of-range selector (route(5), route(-1)) falls through to 3.
func RouteModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpBlock, ContinuationPC: 16}, // default arm
				{Op: ir.OpBlock, ContinuationPC: 13}, // arm 2
				{Op: ir.OpBlock, ContinuationPC: 10}, // arm 1
				{Op: ir.OpBlock, ContinuationPC: 7},  // arm 0
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpBrTable, Targets: []int{0, 1, 2}, Default: 3},
				{Op: ir.OpEnd}, // closes arm 0's block (unreached: br_table always branches)
				{Op: ir.OpI32Const, I32: 0},
				{Op: ir.OpReturn},
				{Op: ir.OpEnd}, // closes arm 1's block
				{Op: ir.OpI32Const, I32: 1},
				{Op: ir.OpReturn},
				{Op: ir.OpEnd}, // closes arm 2's block
				{Op: ir.OpI32Const, I32: 2},
				{Op: ir.OpReturn},
				{Op: ir.OpEnd}, // closes the default block
				{Op: ir.OpI32Const, I32: 3},
				{Op: ir.OpEnd}, // function end
			},
		}},
		Exports: []*wasm.Export{{Name: "route", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// LoggingModule imports "env.log(i32)" and exports "report(i32)", a thin
// wrapper that forwards its argument to the host import.
func LoggingModule() *wasm.Module {
	i32 := api.ValueTypeI32
	return &wasm.Module{
		Types: []*wasm.FunctionType{{Params: []api.ValueType{i32}, Results: nil}},
		Imports: []*wasm.Import{
			{Module: "env", Name: "log", Type: api.ExternTypeFunc, DescFunc: 0},
		},
		Functions: []*wasm.FunctionDef{{
			TypeIndex: 0,
			Code: ir.Code{
				{Op: ir.OpLocalGet, Index: 0},
				{Op: ir.OpCall, FuncIndex: 0},
				{Op: ir.OpEnd},
			},
		}},
		Exports: []*wasm.Export{{Name: "report", Type: api.ExternTypeFunc, Index: 1}},
	}
}

// SelectModule exports "classify(i32) i32" mapping 0->10, 1->20, anything
// else->99 via a three-way br_table jump table, and "pick(i32,i32,i32) i32"
// which uses select to choose between its second and third arguments based
// on whether the first is zero.
//
// classify's dispatch blocks (innermost to outermost: sel0, sel1, deflt) all
// carry no result of their own — br_table only ever targets them before any
// value exists on the stack for that arm. Each arm instead pushes its
// constant and uses a plain "return", which always targets the function's
// own label and so carries the single i32 result out regardless of block
// nesting; only the default arm, reached by falling through br_table's own
// default edge, completes by falling off the end of the function body.
func SelectModule() *wasm.Module {
	i32 := api.ValueTypeI32
	classify := ir.Code{
		{Op: ir.OpBlock, ContinuationPC: 12}, // deflt: resumes at the i32.const 99 lead-in
		{Op: ir.OpBlock, ContinuationPC: 9},  // sel1: resumes at the i32.const 20 lead-in
		{Op: ir.OpBlock, ContinuationPC: 6},  // sel0: resumes at the i32.const 10 lead-in
		{Op: ir.OpLocalGet, Index: 0},
		{Op: ir.OpBrTable, Targets: []int{0, 1}, Default: 2},
		{Op: ir.OpEnd}, // closes sel0 (unreached: br_table always branches)
		{Op: ir.OpI32Const, I32: 10},
		{Op: ir.OpReturn},
		{Op: ir.OpEnd}, // closes sel1
		{Op: ir.OpI32Const, I32: 20},
		{Op: ir.OpReturn},
		{Op: ir.OpEnd}, // closes deflt
		{Op: ir.OpI32Const, I32: 99},
		{Op: ir.OpEnd}, // function end
	}

	pick := ir.Code{
		{Op: ir.OpLocalGet, Index: 1},
		{Op: ir.OpLocalGet, Index: 2},
		{Op: ir.OpLocalGet, Index: 0},
		{Op: ir.OpSelect},
		{Op: ir.OpEnd},
	}

	return &wasm.Module{
		Types: []*wasm.FunctionType{
			{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
			{Params: []api.ValueType{i32, i32, i32}, Results: []api.ValueType{i32}},
		},
		Functions: []*wasm.FunctionDef{
			{TypeIndex: 0, Code: classify},
			{TypeIndex: 1, Code: pick},
		},
		Exports: []*wasm.Export{
			{Name: "classify", Type: api.ExternTypeFunc, Index: 0},
			{Name: "pick", Type: api.ExternTypeFunc, Index: 1},
		},
	}
}
