// Package wasm is the runtime core: the Store that owns functions, memories,
// tables and globals, the Instance that binds a decoded Module to a Store,
// and the Value/FunctionType primitives they share. Executing a function's
// bytecode is delegated to an Engine (see the interpreter package); this
// package never walks ir.Code itself.
package wasm

import (
	"fmt"
	"strings"

	"github.com/nanowasm/nanowasm/api"
	"github.com/nanowasm/nanowasm/ir"
)

// Index is a position in one of a module's index spaces (functions, tables,
// memories, globals, types), counting imports first.
type Index = uint32

// Code is a function body or constant expression, already lowered to the
// interpreter's flat instruction representation.
type Code = ir.Code

// FunctionType is a function signature: its parameter and result value
// types. The MVP (and this implementation) allows at most one result.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#function-types%E2%91%A4
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// EqualsSignature reports whether t accepts params and returns results,
// used to type-check call_indirect targets and import bindings.
func (t *FunctionType) EqualsSignature(params, results []api.ValueType) bool {
	return sameTypes(t.Params, params) && sameTypes(t.Results, results)
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the signature the way error messages expect, e.g. "(i32,i32)->(i32)".
func (t *FunctionType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(")->(")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}

// TableType describes a table import or definition before instantiation.
type TableType struct {
	Min uint32
	Max *uint32
}

// MemoryType describes a memory import or definition before instantiation.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// GlobalType describes a global import or definition before instantiation.
type GlobalType struct {
	ValType api.ValueType
	Mutable bool
}

// Import is one entry of a module's import section.
type Import struct {
	Module, Name string
	Type         api.ExternType

	// Exactly one of the following is populated, per Type.
	DescFunc   Index // index into the module's TypeSection
	DescTable  *TableType
	DescMemory *MemoryType
	DescGlobal *GlobalType
}

func (i *Import) String() string {
	return fmt.Sprintf("%s.%s", i.Module, i.Name)
}

// Export is one entry of a module's export section. Index is relative to
// the index space named by Type (functions, tables, memories, globals).
type Export struct {
	Name  string
	Type  api.ExternType
	Index Index
}

// FunctionDef is a module-defined (non-imported) function: its type and
// body. Code is produced by a decoder ahead of time, with locals and branch
// targets already resolved.
type FunctionDef struct {
	TypeIndex  Index
	LocalTypes []api.ValueType
	Code       Code
}

// GlobalDef is a module-defined (non-imported) global: its type and
// initializer, a detached constant expression evaluated once at
// instantiation time.
type GlobalDef struct {
	Type GlobalType
	Init Code
}

// ElementSegment initializes a range of a table with function references.
// A nil Init entry is an explicit null reference, left uninitialized in the
// table.
type ElementSegment struct {
	TableIndex Index
	Offset     Code // constant expression yielding an i32 offset
	Init       []*Index
}

// DataSegment initializes a range of memory with bytes.
type DataSegment struct {
	MemoryIndex Index
	Offset      Code // constant expression yielding an i32 offset
	Init        []byte
}

// Module is the decoder's output: a fully parsed and (by contract) already
// structurally-validated Wasm module, ready for instantiation. Producing
// one from a %.wasm binary is outside this module's scope.
type Module struct {
	Types     []*FunctionType
	Imports   []*Import
	Functions []*FunctionDef
	Tables    []*TableType
	Memories  []*MemoryType
	Globals   []*GlobalDef
	Exports   []*Export
	Start     *Index
	Elements  []*ElementSegment
	Data      []*DataSegment
}

// NumImportedFuncs counts the function imports, i.e. the offset at which
// module-defined functions begin in the function index space.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, i := range m.Imports {
		if i.Type == api.ExternTypeFunc {
			n++
		}
	}
	return n
}
