package wasm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nanowasm/nanowasm/api"
)

// defaultStackSize is the capacity, in cells/entries, of each of the
// interpreter's three per-invocation stacks, absent explicit configuration.
const defaultStackSize = 65536

// InvokeConfig overrides the scratch-stack capacities used by calls against
// one Instance. A zero field inherits the Engine's capacity for that stack
// (65536 entries unless the Engine was configured otherwise).
type InvokeConfig struct {
	OperandStackSize int
	ControlStackSize int
	LabelStackSize   int
}

func (c InvokeConfig) withDefaults() InvokeConfig {
	if c.OperandStackSize == 0 {
		c.OperandStackSize = defaultStackSize
	}
	if c.ControlStackSize == 0 {
		c.ControlStackSize = defaultStackSize
	}
	if c.LabelStackSize == 0 {
		c.LabelStackSize = defaultStackSize
	}
	return c
}

// Instance binds a decoded Module to concrete Store handles: for every
// import and every local definition it records which Store object answers
// to the module's internal index. Index i of FuncAddrs is the Store handle
// of "function i" in the module's own numbering, imports counted first —
// and likewise for memories, tables and globals.
type Instance struct {
	Module *Module
	Store  *Store
	Name   string

	FuncAddrs   []FuncHandle
	MemAddrs    []MemHandle
	TableAddrs  []TableHandle
	GlobalAddrs []GlobalHandle

	Exports map[string]*Export

	InvokeConfig InvokeConfig
}

// NewInstance binds module to store under name: imports are resolved by
// (module, name) lookup against the store, locals get freshly allocated
// handles, global initializers run, element/data segments apply, and the
// start function (if any) executes. On any failure no partial Instance is
// returned. An empty name skips the named-instance uniqueness check, for
// callers that never look instances up by name.
func NewInstance(ctx context.Context, store *Store, name string, module *Module, cfg InvokeConfig) (*Instance, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if name != "" {
		if store.instantiated[name] {
			return nil, fmt.Errorf("%w: %q", ErrModuleNameAlreadyInstantiated, name)
		}
	}
	inst := &Instance{
		Module:       module,
		Store:        store,
		Name:         name,
		Exports:      map[string]*Export{},
		InvokeConfig: cfg,
	}

	if err := inst.resolveImports(); err != nil {
		return nil, err
	}
	if err := inst.defineLocals(); err != nil {
		return nil, err
	}
	if err := inst.initGlobals(ctx); err != nil {
		return nil, err
	}
	if err := inst.applyElements(ctx); err != nil {
		return nil, err
	}
	if err := inst.applyData(ctx); err != nil {
		return nil, err
	}
	inst.buildExports()

	if module.Start != nil {
		f, err := store.Function(inst.FuncAddrs[*module.Start])
		if err != nil {
			return nil, err
		}
		if _, err := store.Engine.Call(ctx, inst, f, nil); err != nil {
			return nil, fmt.Errorf("start function failed: %w", err)
		}
	}
	if name != "" {
		store.instantiated[name] = true
	}
	store.Log.WithFields(logrus.Fields{
		"module":  name,
		"funcs":   len(module.Functions),
		"mems":    len(module.Memories),
		"tables":  len(module.Tables),
		"globals": len(module.Globals),
	}).Debug("instantiated module")
	return inst, nil
}

func (inst *Instance) resolveImports() error {
	s := inst.Store
	m := inst.Module
	for idx, imp := range m.Imports {
		switch imp.Type {
		case api.ExternTypeFunc:
			h, err := s.Import(imp.Module, imp.Name)
			if err != nil {
				return err
			}
			if int(imp.DescFunc) >= len(m.Types) {
				return fmt.Errorf("%w: import[%d] %s", ErrFuncIndexExceedsTypesLength, idx, imp)
			}
			expected := m.Types[imp.DescFunc]
			f, err := s.Function(h)
			if err != nil {
				return err
			}
			if !f.Type.EqualsSignature(expected.Params, expected.Results) {
				return fmt.Errorf("%w: import[%d] %s: %s != %s", ErrSignatureMismatch, idx, imp, expected, f.Type)
			}
			inst.FuncAddrs = append(inst.FuncAddrs, h)
		case api.ExternTypeMemory:
			h, err := s.importMemory(imp.Module, imp.Name)
			if err != nil {
				return err
			}
			inst.MemAddrs = append(inst.MemAddrs, h)
		case api.ExternTypeTable:
			h, err := s.importTable(imp.Module, imp.Name)
			if err != nil {
				return err
			}
			inst.TableAddrs = append(inst.TableAddrs, h)
		case api.ExternTypeGlobal:
			h, err := s.importGlobal(imp.Module, imp.Name)
			if err != nil {
				return err
			}
			inst.GlobalAddrs = append(inst.GlobalAddrs, h)
		}
	}
	return nil
}

func (inst *Instance) defineLocals() error {
	s := inst.Store
	m := inst.Module

	numImportedFuncs := m.NumImportedFuncs()
	for i, def := range m.Functions {
		if int(def.TypeIndex) >= len(m.Types) {
			return fmt.Errorf("%w: function type index %d", ErrFuncIndexExceedsTypesLength, def.TypeIndex)
		}
		h := s.AddWasmFunction(&Function{
			Kind:       FunctionKindWasm,
			Type:       m.Types[def.TypeIndex],
			Index:      Index(numImportedFuncs + i),
			LocalTypes: def.LocalTypes,
			Code:       def.Code,
			Owner:      inst,
		})
		inst.FuncAddrs = append(inst.FuncAddrs, h)
	}
	for _, mt := range m.Memories {
		inst.MemAddrs = append(inst.MemAddrs, s.AddMemory(mt.Min, mt.Max))
	}
	for _, tt := range m.Tables {
		inst.TableAddrs = append(inst.TableAddrs, s.AddTable(tt.Min, tt.Max))
	}
	// Globals are allocated with a zero placeholder here; initGlobals fills
	// in the real value once const-expressions (which may reference earlier
	// imported globals) have been evaluated.
	for _, gd := range m.Globals {
		inst.GlobalAddrs = append(inst.GlobalAddrs, s.AddGlobal(gd.Type.ValType, gd.Type.Mutable, 0))
	}
	return nil
}

func (inst *Instance) initGlobals(ctx context.Context) error {
	m := inst.Module
	numImported := len(inst.GlobalAddrs) - len(m.Globals)
	for i, gd := range m.Globals {
		v, err := inst.Store.Engine.EvalConstExpr(ctx, inst, gd.Init)
		if err != nil {
			return err
		}
		g, err := inst.Store.Global(inst.GlobalAddrs[numImported+i])
		if err != nil {
			return err
		}
		g.Value = v
	}
	return nil
}

func (inst *Instance) applyElements(ctx context.Context) error {
	for _, elm := range inst.Module.Elements {
		if int(elm.TableIndex) >= len(inst.TableAddrs) {
			return ErrTableIndexOutOfBounds
		}
		table, err := inst.Store.Table(inst.TableAddrs[elm.TableIndex])
		if err != nil {
			return err
		}
		offsetBits, err := inst.Store.Engine.EvalConstExpr(ctx, inst, elm.Offset)
		if err != nil {
			return err
		}
		offset := uint32(api.DecodeI32(offsetBits))
		if uint64(offset)+uint64(len(elm.Init)) > uint64(table.Size()) {
			return ErrElementSegmentOutOfBounds
		}
		for i, fidx := range elm.Init {
			if fidx == nil {
				continue
			}
			if int(*fidx) >= len(inst.FuncAddrs) {
				return ErrFunctionIndexOutOfBounds
			}
			table.Elements[offset+uint32(i)] = inst.FuncAddrs[*fidx]
		}
	}
	return nil
}

func (inst *Instance) applyData(ctx context.Context) error {
	for _, d := range inst.Module.Data {
		if int(d.MemoryIndex) >= len(inst.MemAddrs) {
			return ErrMemoryIndexOutOfBounds
		}
		mem, err := inst.Store.Memory(inst.MemAddrs[d.MemoryIndex])
		if err != nil {
			return err
		}
		offsetBits, err := inst.Store.Engine.EvalConstExpr(ctx, inst, d.Offset)
		if err != nil {
			return err
		}
		offset := uint32(api.DecodeI32(offsetBits))
		if !mem.Write(offset, d.Init) {
			return ErrDataSegmentOutOfBounds
		}
	}
	return nil
}

func (inst *Instance) buildExports() {
	for _, e := range inst.Module.Exports {
		e := e
		inst.Exports[e.Name] = e
	}
}

func (inst *Instance) export(name string, et api.ExternType) (*Export, error) {
	e, ok := inst.Exports[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrExportNotFound, name)
	}
	if e.Type != et {
		return nil, fmt.Errorf("%w: %q is %s, not %s", ErrExportKindMismatch, name, api.ExternTypeName(e.Type), api.ExternTypeName(et))
	}
	return e, nil
}

// ExportedFunction resolves a Func export to its Store handle.
func (inst *Instance) ExportedFunction(name string) (*Function, error) {
	e, err := inst.export(name, api.ExternTypeFunc)
	if err != nil {
		return nil, err
	}
	return inst.Store.Function(inst.FuncAddrs[e.Index])
}

// ExportedMemory resolves a Memory export to the Memory it names.
func (inst *Instance) ExportedMemory(name string) (*Memory, error) {
	e, err := inst.export(name, api.ExternTypeMemory)
	if err != nil {
		return nil, err
	}
	return inst.Store.Memory(inst.MemAddrs[e.Index])
}

// ExportedGlobal resolves a Global export to the Global it names.
func (inst *Instance) ExportedGlobal(name string) (*Global, error) {
	e, err := inst.export(name, api.ExternTypeGlobal)
	if err != nil {
		return nil, err
	}
	return inst.Store.Global(inst.GlobalAddrs[e.Index])
}

// ExportedTable resolves a Table export to the Table it names.
func (inst *Instance) ExportedTable(name string) (*Table, error) {
	e, err := inst.export(name, api.ExternTypeTable)
	if err != nil {
		return nil, err
	}
	return inst.Store.Table(inst.TableAddrs[e.Index])
}

// InvokeTyped resolves name as a Func export, statically checks args against
// its declared signature, runs it to completion, and decodes the single
// result (if any) as result. Passing a non-zero api.ValueType for result
// when the function is void, or the wrong type when it isn't, is a setup
// error: nothing runs.
func (inst *Instance) InvokeTyped(ctx context.Context, name string, args []Value, result api.ValueType) (Value, error) {
	f, err := inst.ExportedFunction(name)
	if err != nil {
		return Value{}, err
	}
	t := f.Type
	if len(args) != len(t.Params) {
		return Value{}, fmt.Errorf("%w: %s wants %d params, got %d", ErrParamCountMismatch, name, len(t.Params), len(args))
	}
	cells := make([]uint64, len(args))
	for i, a := range args {
		if a.Type != t.Params[i] {
			return Value{}, fmt.Errorf("%w: %s param %d: want %s, got %s", ErrParamTypeMismatch, name, i, api.ValueTypeName(t.Params[i]), api.ValueTypeName(a.Type))
		}
		cells[i] = a.bits
	}
	if len(t.Results) > 1 {
		return Value{}, fmt.Errorf("%w: %s has %d results", ErrOnlySingleReturnValueSupported, name, len(t.Results))
	}
	if len(t.Results) == 0 {
		if result != 0 {
			return Value{}, fmt.Errorf("%w: %s is void, but a result type was requested", ErrResultTypeMismatch, name)
		}
	} else if t.Results[0] != result {
		return Value{}, fmt.Errorf("%w: %s returns %s, not %s", ErrResultTypeMismatch, name, api.ValueTypeName(t.Results[0]), api.ValueTypeName(result))
	}

	out, err := inst.Store.Engine.Call(ctx, inst, f, cells)
	if err != nil {
		return Value{}, err
	}
	if len(t.Results) == 0 {
		return Value{}, nil
	}
	return valueFromBits(t.Results[0], out[0]), nil
}

// InvokeDynamic is like InvokeTyped, but the caller supplies and receives
// already-encoded cells; only counts, not element types, are checked. A
// host-function export cannot be invoked this way.
func (inst *Instance) InvokeDynamic(ctx context.Context, name string, in []uint64, out []uint64) error {
	f, err := inst.ExportedFunction(name)
	if err != nil {
		return err
	}
	if f.Kind == FunctionKindHost {
		return ErrInvokeDynamicHostFunctionNotImpl
	}
	t := f.Type
	if len(in) != len(t.Params) {
		return fmt.Errorf("%w: %s wants %d params, got %d", ErrParamCountMismatch, name, len(t.Params), len(in))
	}
	if len(t.Results) > 1 {
		return fmt.Errorf("%w: %s has %d results", ErrOnlySingleReturnValueSupported, name, len(t.Results))
	}
	if len(out) != len(t.Results) {
		return fmt.Errorf("%w: %s produces %d results, got space for %d", ErrResultTypeMismatch, name, len(t.Results), len(out))
	}
	results, err := inst.Store.Engine.Call(ctx, inst, f, in)
	if err != nil {
		return err
	}
	copy(out, results)
	return nil
}
