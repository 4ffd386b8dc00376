// Package nanowasm wires the store, instance and interpreter packages into
// the small set of entry points an embedder actually needs: build a Store
// backed by the interpreter Engine, register host functions, and instantiate
// modules against it.
package nanowasm

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nanowasm/nanowasm/interpreter"
	"github.com/nanowasm/nanowasm/wasm"
)

// Config bundles the interpreter's stack-size options with the NewStore
// convenience constructor below.
type Config struct {
	OperandStackSize int
	ControlStackSize int
	LabelStackSize   int

	// Log overrides the Store's default logger when non-nil.
	Log *logrus.Logger
}

func (c Config) toEngineConfig() interpreter.Config {
	cfg := interpreter.DefaultConfig()
	if c.OperandStackSize != 0 {
		cfg.OperandStackSize = c.OperandStackSize
	}
	if c.ControlStackSize != 0 {
		cfg.ControlStackSize = c.ControlStackSize
	}
	if c.LabelStackSize != 0 {
		cfg.LabelStackSize = c.LabelStackSize
	}
	return cfg
}

// NewStore builds a Store driven by the interpreter Engine, ready for
// AddHostFunction/AddMemory/AddTable/AddGlobal registration followed by
// Instantiate calls.
func NewStore(cfg Config) *wasm.Store {
	engine := interpreter.NewEngine(cfg.toEngineConfig())
	store := wasm.NewStore(engine)
	if cfg.Log != nil {
		store.Log = cfg.Log
	}
	return store
}

// Instantiate binds module to store under name, running its start function
// if it has one. name may be empty for modules that are never looked up
// again by name.
func Instantiate(ctx context.Context, store *wasm.Store, name string, module *wasm.Module, invoke wasm.InvokeConfig) (*wasm.Instance, error) {
	return wasm.NewInstance(ctx, store, name, module, invoke)
}
