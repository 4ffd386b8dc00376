package wasm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowasm/nanowasm/api"
)

type stubEngine struct{}

func (stubEngine) Call(_ context.Context, _ *Instance, _ *Function, params []uint64) ([]uint64, error) {
	return params, nil
}

func (stubEngine) EvalConstExpr(_ context.Context, _ *Instance, _ Code) (uint64, error) {
	return 0, nil
}

func TestStoreAddAndResolveHandles(t *testing.T) {
	s := NewStore(stubEngine{})

	fh := s.AddWasmFunction(&Function{Kind: FunctionKindWasm, Type: &FunctionType{}})
	f, err := s.Function(fh)
	require.NoError(t, err)
	require.Equal(t, FunctionKindWasm, f.Kind)

	mh := s.AddMemory(1, nil)
	m, err := s.Memory(mh)
	require.NoError(t, err)
	require.Equal(t, uint32(1), m.Size())

	th := s.AddTable(2, nil)
	tbl, err := s.Table(th)
	require.NoError(t, err)
	require.Equal(t, uint32(2), tbl.Size())

	gh := s.AddGlobal(api.ValueTypeI32, true, 7)
	g, err := s.Global(gh)
	require.NoError(t, err)
	require.Equal(t, uint64(7), g.Value)
}

func TestStoreHandleOutOfBounds(t *testing.T) {
	s := NewStore(stubEngine{})

	_, err := s.Function(FuncHandle(0))
	require.ErrorIs(t, err, ErrFunctionIndexOutOfBounds)
	_, err = s.Memory(MemHandle(0))
	require.ErrorIs(t, err, ErrMemoryIndexOutOfBounds)
	_, err = s.Table(TableHandle(0))
	require.ErrorIs(t, err, ErrTableIndexOutOfBounds)
	_, err = s.Global(GlobalHandle(0))
	require.ErrorIs(t, err, ErrGlobalIndexOutOfBounds)
}

func TestStoreHostFunctionImportResolution(t *testing.T) {
	s := NewStore(stubEngine{})

	h := s.AddHostFunction("env", "log", func(_ context.Context, _ *Instance, _ []uint64) error { return nil },
		[]api.ValueType{api.ValueTypeI32}, nil)

	got, err := s.Import("env", "log")
	require.NoError(t, err)
	require.Equal(t, h, got)

	_, err = s.Import("env", "missing")
	require.True(t, errors.Is(err, ErrImportNotFound))
}

func TestStoreDefineMemoryTableGlobal(t *testing.T) {
	s := NewStore(stubEngine{})

	mh := s.AddMemory(1, nil)
	s.DefineMemory("env", "memory", mh)
	got, err := s.importMemory("env", "memory")
	require.NoError(t, err)
	require.Equal(t, mh, got)

	th := s.AddTable(1, nil)
	s.DefineTable("env", "table", th)
	gotT, err := s.importTable("env", "table")
	require.NoError(t, err)
	require.Equal(t, th, gotT)

	gh := s.AddGlobal(api.ValueTypeI32, false, 1)
	s.DefineGlobal("env", "g", gh)
	gotG, err := s.importGlobal("env", "g")
	require.NoError(t, err)
	require.Equal(t, gh, gotG)

	_, err = s.importMemory("env", "nope")
	require.True(t, errors.Is(err, ErrImportNotFound))
}
