package wasm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nanowasm/nanowasm/api"
)

// FuncHandle, MemHandle, TableHandle and GlobalHandle are opaque positions
// into a Store's flat object sequences. They are stable for the Store's
// lifetime: nothing is ever removed, so a handle obtained from one Add call
// stays valid across every later one.
type (
	FuncHandle   uint32
	MemHandle    uint32
	TableHandle  uint32
	GlobalHandle uint32
)

// Engine evaluates a Wasm function's code against a Store and Instance. The
// wasm package never walks ir.Code itself; it hands that job to whatever
// Engine it was constructed with (see the interpreter package).
type Engine interface {
	// Call runs f (which may be a Wasm or host Function) with params already
	// encoded as stack cells, returning its results the same way.
	Call(ctx context.Context, inst *Instance, f *Function, params []uint64) ([]uint64, error)

	// EvalConstExpr runs a detached constant-expression instruction stream —
	// used for global initializers and element/data segment offsets — in the
	// context of inst, returning its single result.
	EvalConstExpr(ctx context.Context, inst *Instance, code Code) (uint64, error)
}

// Store owns every runtime object shared across the Instances built from
// it: functions (Wasm or host), memories, tables and globals, each in its
// own flat, append-only sequence indexed by handle.
//
// Store is not internally synchronized. Using one Store (or any Instance
// bound to it) from multiple goroutines requires external mutual exclusion.
type Store struct {
	Engine Engine

	// Log receives instantiation and trap events at Debug/Warn level. It
	// defaults to a logrus.Logger writing to stderr at Warn level; callers
	// embedding this runtime typically replace it with their own
	// application logger.
	Log *logrus.Logger

	functions []*Function
	memories  []*Memory
	tables    []*Table
	globals   []*Global

	// hostImports maps "module.name" to the handle of a registered host
	// function, so Instance creation can resolve (module, name) imports.
	hostImports map[string]FuncHandle

	// memImports, tableImports and globalImports let an embedder pre-register
	// a memory/table/global under a (module, name) pair, mirroring
	// AddHostFunction for the three other import kinds.
	memImports    map[string]MemHandle
	tableImports  map[string]TableHandle
	globalImports map[string]GlobalHandle

	// instantiated tracks which named Instances have already been created
	// from this Store, so a second NewInstance call under the same name
	// fails instead of silently shadowing the first.
	instantiated map[string]bool
}

// NewStore creates an empty Store driven by the given Engine.
func NewStore(engine Engine) *Store {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return &Store{
		Engine:        engine,
		Log:           log,
		hostImports:   map[string]FuncHandle{},
		memImports:    map[string]MemHandle{},
		tableImports:  map[string]TableHandle{},
		globalImports: map[string]GlobalHandle{},
		instantiated:  map[string]bool{},
	}
}

// AddWasmFunction registers a module-defined function and returns its handle.
func (s *Store) AddWasmFunction(f *Function) FuncHandle {
	s.functions = append(s.functions, f)
	return FuncHandle(len(s.functions) - 1)
}

// AddHostFunction registers a host-implemented import under (moduleName,
// name) so later Instance creation can resolve it, and returns its handle.
func (s *Store) AddHostFunction(moduleName, name string, callable HostCallable, params, results []api.ValueType) FuncHandle {
	h := s.AddWasmFunction(&Function{
		Kind:       FunctionKindHost,
		Type:       &FunctionType{Params: params, Results: results},
		ModuleName: moduleName,
		Name:       name,
		Callable:   callable,
	})
	s.hostImports[moduleName+"."+name] = h
	s.Log.WithFields(logrus.Fields{"module": moduleName, "name": name, "signature": (&FunctionType{Params: params, Results: results}).String()}).Debug("registered host function")
	return h
}

// AddMemory allocates a new memory of initialPages pages (bounded by
// maxPages, if non-nil) and returns its handle.
func (s *Store) AddMemory(initialPages uint32, maxPages *uint32) MemHandle {
	s.memories = append(s.memories, NewMemory(initialPages, maxPages))
	return MemHandle(len(s.memories) - 1)
}

// AddTable allocates a new table of initial elements (bounded by max, if
// non-nil) and returns its handle.
func (s *Store) AddTable(initial uint32, max *uint32) TableHandle {
	s.tables = append(s.tables, NewTable(initial, max))
	return TableHandle(len(s.tables) - 1)
}

// AddGlobal allocates a new global cell and returns its handle.
func (s *Store) AddGlobal(typ api.ValueType, mutable bool, init uint64) GlobalHandle {
	s.globals = append(s.globals, &Global{Type: typ, Mutable: mutable, Value: init})
	return GlobalHandle(len(s.globals) - 1)
}

// Function resolves a handle to the Function it names.
func (s *Store) Function(h FuncHandle) (*Function, error) {
	if int(h) >= len(s.functions) {
		return nil, fmt.Errorf("%w: function handle %d", ErrFunctionIndexOutOfBounds, h)
	}
	return s.functions[h], nil
}

// Memory resolves a handle to the Memory it names.
func (s *Store) Memory(h MemHandle) (*Memory, error) {
	if int(h) >= len(s.memories) {
		return nil, fmt.Errorf("%w: memory handle %d", ErrMemoryIndexOutOfBounds, h)
	}
	return s.memories[h], nil
}

// Table resolves a handle to the Table it names.
func (s *Store) Table(h TableHandle) (*Table, error) {
	if int(h) >= len(s.tables) {
		return nil, fmt.Errorf("%w: table handle %d", ErrTableIndexOutOfBounds, h)
	}
	return s.tables[h], nil
}

// Global resolves a handle to the Global it names.
func (s *Store) Global(h GlobalHandle) (*Global, error) {
	if int(h) >= len(s.globals) {
		return nil, fmt.Errorf("%w: global handle %d", ErrGlobalIndexOutOfBounds, h)
	}
	return s.globals[h], nil
}

// Import resolves a registered host function by (moduleName, name).
func (s *Store) Import(moduleName, name string) (FuncHandle, error) {
	h, ok := s.hostImports[moduleName+"."+name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrImportNotFound, moduleName, name)
	}
	return h, nil
}

// DefineMemory pre-registers an already allocated memory under (moduleName,
// name) so a module importing it can be resolved at Instance creation.
func (s *Store) DefineMemory(moduleName, name string, h MemHandle) {
	s.memImports[moduleName+"."+name] = h
}

// DefineTable pre-registers an already allocated table under (moduleName,
// name), mirroring DefineMemory.
func (s *Store) DefineTable(moduleName, name string, h TableHandle) {
	s.tableImports[moduleName+"."+name] = h
}

// DefineGlobal pre-registers an already allocated global under (moduleName,
// name), mirroring DefineMemory.
func (s *Store) DefineGlobal(moduleName, name string, h GlobalHandle) {
	s.globalImports[moduleName+"."+name] = h
}

func (s *Store) importMemory(moduleName, name string) (MemHandle, error) {
	h, ok := s.memImports[moduleName+"."+name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrImportNotFound, moduleName, name)
	}
	return h, nil
}

func (s *Store) importTable(moduleName, name string) (TableHandle, error) {
	h, ok := s.tableImports[moduleName+"."+name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrImportNotFound, moduleName, name)
	}
	return h, nil
}

func (s *Store) importGlobal(moduleName, name string) (GlobalHandle, error) {
	h, ok := s.globalImports[moduleName+"."+name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrImportNotFound, moduleName, name)
	}
	return h, nil
}
