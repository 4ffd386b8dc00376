package interpreter

import (
	"context"

	"github.com/nanowasm/nanowasm/api"
	"github.com/nanowasm/nanowasm/ir"
	"github.com/nanowasm/nanowasm/wasm"
)

// label is one entry of the label stack, pushed by block/loop/if and by a
// function call's implicit outer label. isLoop distinguishes a loop label
// (a branch to it re-enters the loop head and the label survives) from a
// block/if/function label (a branch to it exits the construct and consumes
// the label).
type label struct {
	returnArity    int
	opBase         int
	continuationPC int
	isLoop         bool
}

// frame is one activation record. opBase doubles as the locals base: args
// and declared locals are laid out contiguously starting there, so no
// separate field is needed to track both.
type frame struct {
	inst        *wasm.Instance
	fn          *wasm.Function
	code        ir.Code
	pc          int
	opBase      int
	labelBase   int
	returnArity int
}

// vm holds the three fixed-capacity stacks for one top-level Engine.Call.
type vm struct {
	ctx context.Context

	operand []uint64
	opCap   int

	frames []frame
	fCap   int

	labels []label
	lCap   int
}

func newVM(ctx context.Context, cfg Config) *vm {
	return &vm{
		ctx:     ctx,
		operand: make([]uint64, 0, cfg.OperandStackSize),
		opCap:   cfg.OperandStackSize,
		frames:  make([]frame, 0, cfg.ControlStackSize),
		fCap:    cfg.ControlStackSize,
		labels:  make([]label, 0, cfg.LabelStackSize),
		lCap:    cfg.LabelStackSize,
	}
}

func (m *vm) push(v uint64) error {
	if len(m.operand) >= m.opCap {
		return wasm.NewTrap(wasm.TrapStackOverflow)
	}
	m.operand = append(m.operand, v)
	return nil
}

func (m *vm) pop() uint64 {
	v := m.operand[len(m.operand)-1]
	m.operand = m.operand[:len(m.operand)-1]
	return v
}

func (m *vm) pushLabel(l label) error {
	if len(m.labels) >= m.lCap {
		return wasm.NewTrap(wasm.TrapStackOverflow)
	}
	m.labels = append(m.labels, l)
	return nil
}

func (m *vm) pushFrame(f frame) error {
	if len(m.frames) >= m.fCap {
		return wasm.NewTrap(wasm.TrapStackOverflow)
	}
	m.frames = append(m.frames, f)
	return nil
}

func (m *vm) top() *frame { return &m.frames[len(m.frames)-1] }

// Call implements wasm.Engine. It runs f to completion (Wasm or host),
// returning its results as raw cells.
func (e *Engine) Call(ctx context.Context, inst *wasm.Instance, f *wasm.Function, params []uint64) ([]uint64, error) {
	if f.Kind == wasm.FunctionKindHost {
		return callHost(ctx, inst, f, params)
	}
	cfg := e.cfg.withInstanceOverride(inst.InvokeConfig)
	m := newVM(ctx, cfg)
	for _, p := range params {
		if err := m.push(p); err != nil {
			return nil, err
		}
	}
	if err := m.enterFunction(f, len(params)); err != nil {
		return nil, err
	}
	if err := m.run(); err != nil {
		return nil, err
	}
	out := make([]uint64, len(f.Type.Results))
	copy(out, m.operand)
	return out, nil
}

// EvalConstExpr implements wasm.Engine for global initializers and
// element/data segment offsets: a tiny, call-free instruction stream ending
// in an implicit end, operating on its own scratch stack.
func (e *Engine) EvalConstExpr(ctx context.Context, inst *wasm.Instance, code wasm.Code) (uint64, error) {
	m := newVM(ctx, e.cfg)
	if err := m.pushFrame(frame{inst: inst, code: code, opBase: 0, labelBase: 0, returnArity: 1}); err != nil {
		return 0, err
	}
	if err := m.pushLabel(label{returnArity: 1, opBase: 0, continuationPC: len(code)}); err != nil {
		return 0, err
	}
	if err := m.run(); err != nil {
		return 0, err
	}
	if len(m.operand) == 0 {
		return 0, nil
	}
	return m.operand[len(m.operand)-1], nil
}

// enterFunction pushes a Frame and its implicit function Label for f,
// assuming argCount argument cells are already sitting on top of the
// operand stack, and positions pc at the start of f's body.
func (m *vm) enterFunction(f *wasm.Function, argCount int) error {
	opBase := len(m.operand) - argCount
	for range f.LocalTypes {
		if err := m.push(0); err != nil {
			return err
		}
	}
	fr := frame{
		inst:        f.Owner,
		fn:          f,
		code:        f.Code,
		pc:          0,
		opBase:      opBase,
		labelBase:   len(m.labels),
		returnArity: len(f.Type.Results),
	}
	if err := m.pushFrame(fr); err != nil {
		return err
	}
	return m.pushLabel(label{returnArity: fr.returnArity, opBase: opBase, continuationPC: len(f.Code)})
}

// run drains the frame stack, executing instructions until it empties
// (normal return from the top-level call) or a trap/setup error occurs.
func (m *vm) run() error {
	for len(m.frames) > 0 {
		if err := m.step(); err != nil {
			if te, ok := err.(*wasm.TrapError); ok {
				te.Frames = m.trace()
				if len(m.frames) > 0 {
					if log := m.frames[len(m.frames)-1].inst.Store.Log; log != nil {
						log.WithField("trap", te.Kind.String()).Warn("execution trapped")
					}
				}
			}
			return err
		}
	}
	return nil
}

// trace renders the live frame stack, innermost first, for a trap's
// best-effort call trace.
func (m *vm) trace() []string {
	frames := make([]string, 0, len(m.frames))
	for i := len(m.frames) - 1; i >= 0; i-- {
		fr := m.frames[i]
		if fr.fn == nil {
			continue
		}
		name := fr.fn.Name
		modName := fr.fn.ModuleName
		if fr.inst != nil {
			modName = fr.inst.Name
		}
		frames = append(frames, wasm.FuncName(modName, name, fr.fn.Index))
	}
	return frames
}

// step executes exactly one instruction of the current top frame, which may
// push/pop frames itself (call, return, end-of-function).
func (m *vm) step() error {
	fr := m.top()
	if fr.pc >= len(fr.code) {
		// Well-formed code always ends in an explicit End; this only
		// guards against a detached const-expr with no trailing opcode.
		m.labels = m.labels[:fr.labelBase]
		return m.popFunctionFrame(fr)
	}
	instr := fr.code[fr.pc]
	fr.pc++

	switch instr.Op {
	case ir.OpUnreachable:
		return wasm.NewTrap(wasm.TrapUnreachableExecuted)
	case ir.OpNop:
		// no-op

	case ir.OpBlock:
		return m.pushLabel(label{returnArity: instr.ResultArity, opBase: len(m.operand), continuationPC: instr.ContinuationPC})
	case ir.OpLoop:
		return m.pushLabel(label{returnArity: instr.ResultArity, opBase: len(m.operand), continuationPC: instr.ContinuationPC, isLoop: true})
	case ir.OpIf:
		cond := api.DecodeI32(m.pop())
		if err := m.pushLabel(label{returnArity: instr.ResultArity, opBase: len(m.operand), continuationPC: instr.ContinuationPC}); err != nil {
			return err
		}
		if cond == 0 {
			fr.pc = instr.ElsePC
		}
	case ir.OpElse:
		// Reached by falling off the end of the "then" arm: the whole if is
		// done, so its label comes off with the jump past the matching End
		// (which will not execute).
		fr.pc = m.labels[len(m.labels)-1].continuationPC
		m.labels = m.labels[:len(m.labels)-1]
	case ir.OpEnd:
		return m.popLabel(fr)
	case ir.OpReturn:
		return m.branchTo(fr.labelBase)
	case ir.OpBr:
		return m.branchTo(len(m.labels) - 1 - instr.Depth)
	case ir.OpBrIf:
		cond := api.DecodeI32(m.pop())
		if cond != 0 {
			return m.branchTo(len(m.labels) - 1 - instr.Depth)
		}
	case ir.OpBrTable:
		sel := int(api.DecodeU32(m.pop()))
		depth := instr.Default
		if sel >= 0 && sel < len(instr.Targets) {
			depth = instr.Targets[sel]
		}
		return m.branchTo(len(m.labels) - 1 - depth)

	case ir.OpDrop:
		m.pop()
	case ir.OpSelect:
		cond := api.DecodeI32(m.pop())
		b := m.pop()
		a := m.pop()
		if cond != 0 {
			return m.push(a)
		}
		return m.push(b)

	case ir.OpLocalGet:
		return m.push(m.operand[fr.opBase+int(instr.Index)])
	case ir.OpLocalSet:
		m.operand[fr.opBase+int(instr.Index)] = m.pop()
	case ir.OpLocalTee:
		m.operand[fr.opBase+int(instr.Index)] = m.operand[len(m.operand)-1]
	case ir.OpGlobalGet:
		g, err := fr.inst.Store.Global(fr.inst.GlobalAddrs[instr.Index])
		if err != nil {
			return err
		}
		return m.push(g.Value)
	case ir.OpGlobalSet:
		g, err := fr.inst.Store.Global(fr.inst.GlobalAddrs[instr.Index])
		if err != nil {
			return err
		}
		g.Value = m.pop()

	case ir.OpI32Const:
		return m.push(api.EncodeI32(instr.I32))
	case ir.OpI64Const:
		return m.push(api.EncodeI64(instr.I64))
	case ir.OpF32Const:
		return m.push(api.EncodeF32(instr.F32))
	case ir.OpF64Const:
		return m.push(api.EncodeF64(instr.F64))

	case ir.OpMemorySize:
		mem, err := m.currentMemory(fr)
		if err != nil {
			return err
		}
		return m.push(api.EncodeU32(mem.Size()))
	case ir.OpMemoryGrow:
		mem, err := m.currentMemory(fr)
		if err != nil {
			return err
		}
		delta := api.DecodeU32(m.pop())
		return m.push(api.EncodeU32(mem.Grow(delta)))

	default:
		return m.execNumericOrMemOp(fr, instr)
	}
	return nil
}

func (m *vm) currentMemory(fr *frame) (*wasm.Memory, error) {
	if len(fr.inst.MemAddrs) == 0 {
		return nil, wasm.ErrMemoryIndexOutOfBounds
	}
	return fr.inst.Store.Memory(fr.inst.MemAddrs[0])
}

// popLabel implements the plain "end" opcode: pop the innermost label. If
// that was the current frame's implicit function label, the function has
// completed normally and control returns to the caller.
func (m *vm) popLabel(fr *frame) error {
	m.labels = m.labels[:len(m.labels)-1]
	if len(m.labels) == fr.labelBase {
		return m.popFunctionFrame(fr)
	}
	return nil
}

// branchTo implements br/br_if/br_table/return: unwind the operand stack to
// the target label's base, preserving its return arity worth of values, set
// pc to its continuation, and pop every label above it (plus the target
// itself unless it is a loop, which remains live for further branches).
func (m *vm) branchTo(targetIdx int) error {
	fr := m.top()
	target := m.labels[targetIdx]

	n := target.returnArity
	vals := make([]uint64, n)
	copy(vals, m.operand[len(m.operand)-n:])

	m.operand = m.operand[:target.opBase]
	for _, v := range vals {
		if err := m.push(v); err != nil {
			return err
		}
	}

	fr.pc = target.continuationPC
	if target.isLoop {
		m.labels = m.labels[:targetIdx+1]
	} else {
		m.labels = m.labels[:targetIdx]
	}
	if len(m.labels) == fr.labelBase {
		return m.popFunctionFrame(fr)
	}
	return nil
}

// popFunctionFrame completes the current frame's activation: the top
// returnArity values move down to fr.opBase, dropping the arguments and
// locals beneath them, so the caller resumes with exactly the results in
// the argument cells' place. A return arrives here with the operand stack
// already rewound by branchTo, in which case the move is a no-op.
func (m *vm) popFunctionFrame(fr *frame) error {
	n := fr.returnArity
	copy(m.operand[fr.opBase:], m.operand[len(m.operand)-n:])
	m.operand = m.operand[:fr.opBase+n]
	m.frames = m.frames[:len(m.frames)-1]
	return nil
}

func (m *vm) call(callerInst *wasm.Instance, h wasm.FuncHandle) error {
	f, err := callerInst.Store.Function(h)
	if err != nil {
		return err
	}
	if f.Kind == wasm.FunctionKindHost {
		argc := len(f.Type.Params)
		args := make([]uint64, argc)
		copy(args, m.operand[len(m.operand)-argc:])
		m.operand = m.operand[:len(m.operand)-argc]
		out, err := callHost(m.ctx, callerInst, f, args)
		if err != nil {
			return err
		}
		for _, v := range out {
			if err := m.push(v); err != nil {
				return err
			}
		}
		return nil
	}
	return m.enterFunction(f, len(f.Type.Params))
}

func (m *vm) execNumericOrMemOp(fr *frame, instr ir.Instruction) error {
	switch instr.Op {
	case ir.OpCall:
		return m.call(fr.inst, fr.inst.FuncAddrs[instr.FuncIndex])
	case ir.OpCallIndirect:
		return m.callIndirect(fr, instr)
	default:
		return m.execArith(fr, instr)
	}
}

func (m *vm) callIndirect(fr *frame, instr ir.Instruction) error {
	if int(instr.TableIndex) >= len(fr.inst.TableAddrs) {
		return wasm.ErrTableIndexOutOfBounds
	}
	table, err := fr.inst.Store.Table(fr.inst.TableAddrs[instr.TableIndex])
	if err != nil {
		return err
	}
	idx := api.DecodeU32(m.pop())
	h, ok := table.Get(idx)
	if !ok {
		return wasm.NewTrap(wasm.TrapUndefinedElement)
	}
	if h == wasm.NullFuncHandle {
		return wasm.NewTrap(wasm.TrapUninitializedElement)
	}
	f, err := fr.inst.Store.Function(h)
	if err != nil {
		return err
	}
	if int(instr.TypeIndex) >= len(fr.inst.Module.Types) {
		return wasm.ErrFuncIndexExceedsTypesLength
	}
	want := fr.inst.Module.Types[instr.TypeIndex]
	if !f.Type.EqualsSignature(want.Params, want.Results) {
		return wasm.NewTrap(wasm.TrapIndirectCallTypeMismatch)
	}
	return m.call(fr.inst, h)
}

func u32(v uint64) uint32   { return uint32(v) }
func i32(v uint64) int32    { return int32(uint32(v)) }
func f32v(v uint64) float32 { return api.DecodeF32(v) }
func f64v(v uint64) float64 { return api.DecodeF64(v) }

func boolCell(b bool) uint64 { return boolToI32(b) }
