// Package interpreter is a stack-machine implementation of wasm.Engine: it
// walks a function's ir.Code against three fixed-capacity stacks (operand,
// frame, label), implementing Wasm's structured control flow, trapping
// arithmetic and the host-function calling convention.
package interpreter

import "github.com/nanowasm/nanowasm/wasm"

// Config holds capacities for the three per-invocation stacks. All three
// default to 65536 entries when left zero.
type Config struct {
	OperandStackSize int
	ControlStackSize int
	LabelStackSize   int
}

// DefaultConfig returns the default capacities: 65536 entries per stack.
func DefaultConfig() Config {
	return Config{OperandStackSize: 65536, ControlStackSize: 65536, LabelStackSize: 65536}
}

func (c Config) withInstanceOverride(o wasm.InvokeConfig) Config {
	if o.OperandStackSize != 0 {
		c.OperandStackSize = o.OperandStackSize
	}
	if o.ControlStackSize != 0 {
		c.ControlStackSize = o.ControlStackSize
	}
	if o.LabelStackSize != 0 {
		c.LabelStackSize = o.LabelStackSize
	}
	return c
}

// Engine is the interpreter's implementation of wasm.Engine.
type Engine struct {
	cfg Config
}

// NewEngine constructs an interpreter Engine with the given stack capacities.
func NewEngine(cfg Config) *Engine {
	d := DefaultConfig()
	if cfg.OperandStackSize == 0 {
		cfg.OperandStackSize = d.OperandStackSize
	}
	if cfg.ControlStackSize == 0 {
		cfg.ControlStackSize = d.ControlStackSize
	}
	if cfg.LabelStackSize == 0 {
		cfg.LabelStackSize = d.LabelStackSize
	}
	return &Engine{cfg: cfg}
}

// NewDefaultEngine constructs an interpreter Engine with DefaultConfig.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultConfig())
}
