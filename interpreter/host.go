package interpreter

import (
	"context"

	"github.com/nanowasm/nanowasm/wasm"
)

// callHost invokes a host-implemented Function's Callable with a scratch
// stack sized for its declared arity: args first, then the same slice
// reused to receive results once Callable returns.
func callHost(ctx context.Context, calledFrom *wasm.Instance, f *wasm.Function, params []uint64) ([]uint64, error) {
	stack := make([]uint64, len(f.Type.Params))
	copy(stack, params)
	if len(f.Type.Results) > len(stack) {
		grown := make([]uint64, len(f.Type.Results))
		copy(grown, stack)
		stack = grown
	}
	if err := f.Callable(ctx, calledFrom, stack); err != nil {
		return nil, err
	}
	out := make([]uint64, len(f.Type.Results))
	copy(out, stack)
	return out, nil
}
