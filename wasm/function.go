package wasm

import (
	"context"

	"github.com/nanowasm/nanowasm/api"
)

// FunctionKind distinguishes the two Function variants.
type FunctionKind int

const (
	FunctionKindWasm FunctionKind = iota
	FunctionKindHost
)

// HostCallable is the calling convention for a host function: it is given
// the calling Instance (to reach its memories/tables) and a scratch slice
// copied off the operand stack, whose first len(Params) cells hold the
// arguments in parameter order. It writes its len(Results) results into the
// first cells of that same slice, left-to-right; the slice is at least that
// long. Returning a non-nil error traps the current invocation.
type HostCallable func(ctx context.Context, calledFrom *Instance, stack []uint64) error

// Function is the union of the two ways a callable can be implemented: a
// Wasm function compiled from a module's code section, or a host function
// supplied by the embedder. The Kind field discriminates the variant; a
// type switch is never needed because the irrelevant fields are simply
// unused.
type Function struct {
	Kind FunctionKind
	Type *FunctionType

	// Index is this function's position in its owning module's function
	// index space (imports counted first), used only to label stack traces
	// when no better name is available.
	Index Index

	// Wasm variant.
	LocalTypes []api.ValueType
	Code       Code
	Owner      *Instance // the instance this function was defined in

	// Host variant.
	ModuleName string
	Name       string
	Callable   HostCallable
}
