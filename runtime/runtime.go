// Package runtime is the embedded API: a reusable Runtime wrapping one
// evm.EVM plus whatever frame a call to Interpret or InterpretOpCode
// last set up, mirroring the reference engine's runtime.Execute/
// Create/Call free functions but bound to a struct so step-by-step
// debugging (InterpretOpCode) has somewhere to keep state between
// calls (SPEC_FULL.md §6).
package runtime

import (
	"errors"

	logging "github.com/op/go-logging"

	"github.com/entropyio/go-evm/chain"
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/evm"
	"github.com/entropyio/go-evm/fork"
	"github.com/entropyio/go-evm/logger"
	"github.com/entropyio/go-evm/memory"
	"github.com/entropyio/go-evm/stack"
	"github.com/entropyio/go-evm/state"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

var log = logger.NewLogger("[runtime]")

// errNoActiveFrame and errOpCodeMismatch are embedder-contract
// violations, not interpreter error-taxonomy members (SPEC_FULL.md
// §7 only taxonomizes errors a frame itself can produce): calling
// InterpretOpCode before Interpret, or stepping against a pc whose
// actual opcode disagrees with the caller's expectation.
var (
	errNoActiveFrame   = errors.New("runtime: InterpretOpCode called before Interpret set up a frame")
	errOpCodeMismatch  = errors.New("runtime: InterpretOpCode op does not match opcode at current pc")
)

// DebugLevel controls only how verbosely the run is logged; it has no
// effect on Interpret's return value (SPEC_FULL.md §9's resolution of
// the debug-output Open Question).
type DebugLevel int

const (
	DebugNone DebugLevel = iota
	DebugInfo
	DebugVerbose
)

func (d DebugLevel) loggingLevel() logging.Level {
	switch d {
	case DebugVerbose:
		return logging.DEBUG
	case DebugInfo:
		return logging.INFO
	default:
		return logging.WARNING
	}
}

// Result is what Interpret returns on any clean halt, including
// REVERT — a REVERT is success=false but not a Go error.
type Result struct {
	Success bool
	Output  []byte
	Logs    []evm.LogRecord
}

// defaultAddress is the placeholder executing address used when no
// WithAddress option is supplied, matching the reference engine's own
// Execute() convenience (runtime.Execute used common.BytesToAddress([]byte("contract"))).
var defaultAddress = common.BytesToAddress([]byte("contract"))

// Runtime is a reusable frame-construction context: one caller/origin/
// address/value/calldata configuration, one EVM (State + Context),
// and the most recently constructed Runner (kept across
// InterpretOpCode calls for step debugging).
type Runtime struct {
	caller   common.Address
	origin   common.Address
	address  common.Address
	value    word.Word
	callData []byte

	st  *state.State
	evm *evm.EVM

	runner *evm.Runner
}

// Option configures a Runtime at construction time.
type Option func(*options)

type options struct {
	caller      common.Address
	origin      *common.Address
	address     common.Address
	value       word.Word
	callData    []byte
	forkURL     string
	state       *state.State
	block       *config.BlockContext
	chainConfig *config.ChainConfig
	maxSteps    uint64
}

func WithCaller(addr common.Address) Option {
	return func(o *options) { o.caller = addr }
}

func WithOrigin(addr common.Address) Option {
	return func(o *options) { o.origin = &addr }
}

func WithAddress(addr common.Address) Option {
	return func(o *options) { o.address = addr }
}

func WithValue(v word.Word) Option {
	return func(o *options) { o.value = v }
}

func WithCallData(data []byte) Option {
	return func(o *options) { o.callData = data }
}

// WithFork attaches a live JSON-RPC fork provider at url; State misses
// are resolved by fetching from it (SPEC_FULL.md §4.6).
func WithFork(url string) Option {
	return func(o *options) { o.forkURL = url }
}

// WithState overrides the State a Runtime runs against; default is a
// fresh, unforked State.
func WithState(s *state.State) Option {
	return func(o *options) { o.state = s }
}

func WithBlockContext(b *config.BlockContext) Option {
	return func(o *options) { o.block = b }
}

func WithChainConfig(c *config.ChainConfig) Option {
	return func(o *options) { o.chainConfig = c }
}

// WithMaxSteps bounds the instruction count of each frame an Interpret
// call runs (nested CALL/CREATE frames keep their own count); 0 (the
// default) means unbounded.
func WithMaxSteps(n uint64) Option {
	return func(o *options) { o.maxSteps = n }
}

// New constructs a Runtime. Origin defaults to caller; address
// defaults to a fixed placeholder contract address, matching the
// reference engine's own Execute() convenience.
func New(opts ...Option) *Runtime {
	o := &options{
		address: defaultAddress,
		value:   word.Zero(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.origin == nil {
		o.origin = &o.caller
	}

	var provider state.Provider
	var forkProvider *fork.Client
	if o.forkURL != "" {
		forkProvider = fork.New(o.forkURL)
		provider = forkProvider
	}

	st := o.state
	if st == nil {
		st = state.New(provider)
	}

	block := o.block
	if block == nil {
		block = config.DefaultBlockContext()
		if forkProvider != nil {
			if fetched, err := forkProvider.FetchBlockContext(); err == nil {
				block = fetched
			} else {
				log.Warningf("fork fetch_block_context failed, using defaults: %v", err)
			}
		}
	}

	chainConfig := o.chainConfig
	if chainConfig == nil {
		chainConfig = config.DefaultChainConfig
	}

	ctx := evm.Context{
		CanTransfer: chain.CanTransfer,
		Transfer:    chain.Transfer,
		Block:       block,
		ChainConfig: chainConfig,
		MaxSteps:    o.maxSteps,
	}

	return &Runtime{
		caller:   o.caller,
		origin:   *o.origin,
		address:  o.address,
		value:    o.value,
		callData: o.callData,
		st:       st,
		evm:      evm.NewEVM(ctx, st),
	}
}

// Interpret runs bytecode to completion as a fresh top-level frame.
// When commitFinalState is true and the frame halts cleanly (STOP or
// RETURN), the resulting State writes are kept; otherwise (a revert,
// an error halt, or commitFinalState false) every write this call made
// is discarded, so a caller can use commitFinalState=false to simulate
// without mutating State.
func (rt *Runtime) Interpret(bytecode []byte, debugLevel DebugLevel, commitFinalState bool) (Result, error) {
	logger.SetLevel(debugLevel.loggingLevel())

	ctx := evm.CallContext{
		Caller:    rt.caller,
		Origin:    rt.origin,
		Address:   rt.address,
		CallValue: rt.value,
		CallData:  rt.callData,
		IsStatic:  false,
		Depth:     0,
	}

	handle := rt.st.Snapshot()
	rt.runner = evm.NewRunner(rt.evm, ctx, bytecode)
	rt.runner.Run()

	res := Result{
		Success: rt.runner.Success(),
		Output:  rt.runner.Output(),
		Logs:    rt.runner.Logs(),
	}
	log.Debugf("interpret done: success=%v halted pc=%d steps-err=%v", res.Success, rt.runner.PC(), rt.runner.Err())

	if res.Success && commitFinalState {
		rt.st.Commit(handle)
	} else {
		rt.st.Revert(handle)
	}

	if forkErr, ok := asForkError(rt.runner.Err()); ok {
		return res, forkErr
	}
	return res, nil
}

// InterpretOpCode steps the frame set up by the most recent Interpret
// call by exactly one instruction, for step-by-step debugging. op is
// the caller's expectation of the opcode at the current pc; a mismatch
// signals a debugger/bytecode desync rather than a VM error.
func (rt *Runtime) InterpretOpCode(op byte) error {
	if rt.runner == nil {
		return errNoActiveFrame
	}
	if byte(rt.runner.CurrentOpCode()) != op {
		return errOpCodeMismatch
	}
	rt.runner.Step()
	return rt.runner.Err()
}

// Stack exposes the active frame's operand stack, or nil if no frame
// has been constructed yet.
func (rt *Runtime) Stack() *stack.Stack {
	if rt.runner == nil {
		return nil
	}
	return rt.runner.Stack()
}

// Memory exposes the active frame's linear memory, or nil if no frame
// has been constructed yet.
func (rt *Runtime) Memory() *memory.Memory {
	if rt.runner == nil {
		return nil
	}
	return rt.runner.Memory()
}

// State exposes the Runtime's shared world State.
func (rt *Runtime) State() *state.State { return rt.st }

// PC returns the active frame's program counter, or 0 if no frame has
// been constructed yet.
func (rt *Runtime) PC() int {
	if rt.runner == nil {
		return 0
	}
	return rt.runner.PC()
}

// asForkError reports whether err is a Fork-kind error, the only kind
// that propagates out of Interpret as a Go error (SPEC_FULL.md §7).
func asForkError(err error) (*vmerrors.Error, bool) {
	if err == nil {
		return nil, false
	}
	var verr *vmerrors.Error
	if errors.As(err, &verr) && verr.Kind == vmerrors.KindFork {
		return verr, true
	}
	return nil, false
}
