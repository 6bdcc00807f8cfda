package evm

import (
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/logger"
	"github.com/entropyio/go-evm/memory"
	"github.com/entropyio/go-evm/stack"
	"github.com/entropyio/go-evm/vmerrors"
)

var log = logger.NewLogger("[evm]")

// instructionFn executes one opcode against the Runner. A returned
// error halts the frame with HaltError (or, for StackUnderflow/
// StackOverflow surfaced by Stack itself, the same). Handlers that
// halt deliberately (STOP/RETURN/REVERT/INVALID) set r.halt themselves
// and return nil.
type instructionFn func(r *Runner) error

// operation is one opcode's dispatch-table entry: the handler plus the
// metadata the main loop needs to validate and advance without the
// handler repeating that bookkeeping (SPEC_FULL.md §9 "Opcode
// dispatch").
type operation struct {
	name            string
	exec            instructionFn
	minStack        int
	movesPC         bool
	forbiddenStatic bool
}

var opTable [256]*operation

func register(op OpCode, o *operation) {
	opTable[op] = o
}

// Runner is one activation of the interpreter: one call context, one
// stack, one memory, one return-data buffer, dispatching bytecode
// opcodes until it halts (SPEC_FULL.md §4.5).
type Runner struct {
	evm *EVM

	ctx      CallContext
	bytecode []byte
	pc       int

	stack      *stack.Stack
	memory     *memory.Memory
	returnData []byte

	halt   HaltReason
	output []byte
	logs   []LogRecord
	err    error

	jumpdests *jumpdestBitmap
	steps     uint64
}

// NewRunner constructs a Runner ready to execute code under ctx, sharing
// evm's State and Context.
func NewRunner(evm *EVM, ctx CallContext, code []byte) *Runner {
	return &Runner{
		evm:       evm,
		ctx:       ctx,
		bytecode:  code,
		stack:     stack.New(),
		memory:    memory.New(),
		jumpdests: newJumpdestBitmap(code),
	}
}

// Run executes the main dispatch loop until the frame halts or the
// bytecode is exhausted (an implicit STOP), per SPEC_FULL.md §4.5.
func (r *Runner) Run() {
	for r.halt == HaltNone && r.pc < len(r.bytecode) {
		if !r.Step() {
			break
		}
	}
	if r.halt == HaltNone {
		// Bytecode exhausted: implicit STOP.
		r.halt = HaltStop
	}
}

// Step executes exactly one opcode at the current pc and reports
// whether the loop should keep going (false once the frame has
// halted, whether cleanly or on error). It is the dispatch-table body
// Run repeats in a loop, factored out so the embedded API's
// InterpretOpCode can drive the same frame one instruction at a time
// for step debugging (SPEC_FULL.md §6).
func (r *Runner) Step() bool {
	if r.halt != HaltNone || r.pc >= len(r.bytecode) {
		return false
	}
	op := OpCode(r.bytecode[r.pc])
	entry := opTable[op]
	if entry == nil {
		r.halt = HaltInvalid
		return false
	}
	if entry.forbiddenStatic && r.ctx.IsStatic {
		r.fail(vmerrors.ErrStaticViolation)
		return false
	}
	if r.stack.Len() < entry.minStack {
		r.fail(vmerrors.ErrStackUnderflow)
		return false
	}
	if r.evm.MaxSteps > 0 && r.steps >= r.evm.MaxSteps {
		r.fail(vmerrors.ErrOutOfBounds)
		return false
	}
	if err := entry.exec(r); err != nil {
		r.fail(err)
		return false
	}
	if r.halt != HaltNone {
		return false
	}
	if !entry.movesPC {
		r.pc++
	}
	r.steps++
	return true
}

// CurrentOpCode returns the opcode at pc, or STOP if pc is past the
// end of the bytecode (the implicit-STOP convention Run relies on).
func (r *Runner) CurrentOpCode() OpCode {
	if r.pc >= len(r.bytecode) {
		return STOP
	}
	return OpCode(r.bytecode[r.pc])
}

// recordSoftError records err as observable via Err() without halting
// the frame or affecting Success(). CALL/CREATE failures that the ABI
// only ever surfaces as a 0 push (InsufficientBalance,
// CallDepthExceeded) still record their specific kind here, so an
// embedder inspecting the frame's trace can tell them apart from an
// ordinary sub-call revert (SPEC_FULL.md §7: "available via the
// embedder's trace, not through the opcode ABI").
func (r *Runner) recordSoftError(err error) {
	r.err = err
}

// fail records err and halts the frame with HaltError. StaticViolation,
// StackUnderflow/Overflow, InvalidJump and OutOfBounds all route here;
// only Fork errors propagate past this frame, handled by the caller
// inspecting r.err.
func (r *Runner) fail(err error) {
	r.err = err
	r.halt = HaltError
}

// Success reports whether this frame halted cleanly (STOP or RETURN).
func (r *Runner) Success() bool { return r.halt.Success() }

// Output returns the frame's final output bytes (set by RETURN/REVERT).
func (r *Runner) Output() []byte { return r.output }

// Err returns the error that caused HaltError, if any, or the most
// recent soft error recorded by recordSoftError even if the frame kept
// running past it.
func (r *Runner) Err() error { return r.err }

// Logs returns the log records emitted by this frame.
func (r *Runner) Logs() []LogRecord { return r.logs }

// PC returns the current program counter.
func (r *Runner) PC() int { return r.pc }

// Stack exposes the frame's operand stack (embedder accessor, §6).
func (r *Runner) Stack() *stack.Stack { return r.stack }

// Memory exposes the frame's linear memory (embedder accessor, §6).
func (r *Runner) Memory() *memory.Memory { return r.memory }

// CallContext returns the frame's immutable call context.
func (r *Runner) CallContext() CallContext { return r.ctx }

// stackLimit mirrors config.StackLimit inside this package. Call depth
// before a CALL/CREATE recursion is checked against
// config.CallDepthLimit, not this value.
const stackLimit = config.StackLimit
