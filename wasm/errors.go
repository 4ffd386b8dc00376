package wasm

import "errors"

// Setup errors are returned from the API boundary (Instantiate, InvokeTyped,
// InvokeDynamic). InvokeTyped and InvokeDynamic return them before any
// execution happens. Instantiate can return them after it has already added
// objects to the Store, evaluated constant expressions, or written element
// and data segments; those changes are not rolled back.
var (
	ErrFuncIndexExceedsTypesLength         = errors.New("function index exceeds types length")
	ErrFunctionIndexOutOfBounds            = errors.New("function index out of bounds")
	ErrMemoryIndexOutOfBounds              = errors.New("memory index out of bounds")
	ErrTableIndexOutOfBounds               = errors.New("table index out of bounds")
	ErrGlobalIndexOutOfBounds              = errors.New("global index out of bounds")
	ErrParamCountMismatch                  = errors.New("param count mismatch")
	ErrParamTypeMismatch                   = errors.New("param type mismatch")
	ErrResultTypeMismatch                  = errors.New("result type mismatch")
	ErrOnlySingleReturnValueSupported      = errors.New("only single return value supported")
	ErrImportNotFound                      = errors.New("import not found")
	ErrInvokeDynamicHostFunctionNotImpl    = errors.New("invoke_dynamic of a host function is not implemented")
	ErrExportNotFound                      = errors.New("export not found")
	ErrExportKindMismatch                  = errors.New("export is not of the requested kind")
	ErrModuleNameAlreadyInstantiated       = errors.New("module name already instantiated")
	ErrElementSegmentOutOfBounds           = errors.New("element segment offset out of bounds")
	ErrDataSegmentOutOfBounds              = errors.New("data segment offset out of bounds")
	ErrSignatureMismatch                   = errors.New("import signature mismatch")
)
