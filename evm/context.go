package evm

import (
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/state"
	"github.com/entropyio/go-evm/word"
)

// CallContext is the immutable per-frame context SPEC_FULL.md §3
// describes: everything a Runner needs about how it was invoked, fixed
// for the lifetime of the frame.
type CallContext struct {
	Caller    common.Address
	Origin    common.Address
	Address   common.Address
	CallValue word.Word
	CallData  []byte
	IsStatic  bool
	Depth     int
}

// LogRecord is one LOGn emission.
type LogRecord struct {
	Address common.Address
	Topics  []word.Word
	Data    []byte
}

// ForkProvider is the full set of lazy-fetch methods a fork attachment
// must provide: the account/storage methods State itself consults
// (state.Provider) plus the block-context fetch the EVM consults once
// at construction time.
type ForkProvider interface {
	state.Provider
	FetchBlockContext() (*config.BlockContext, error)
}

// CanTransferFunc and TransferFunc mirror the reference engine's
// Context.CanTransfer/Context.Transfer callback fields (chain/evm.go,
// runtime/env.go): value moves between accounts always go through
// Context so an embedder can swap in alternate transfer semantics
// (SELFDESTRUCT additionally zeroes the executing account's balance with
// a direct State write after its transfer).
type CanTransferFunc func(s *state.State, addr common.Address, amount word.Word) bool
type TransferFunc func(s *state.State, sender, recipient common.Address, amount word.Word) error

// Context carries everything an EVM needs beyond the bytecode itself:
// the block-context values environment opcodes read, the transfer
// callbacks, and the embedder safeguards (max call depth, max steps).
type Context struct {
	CanTransfer CanTransferFunc
	Transfer    TransferFunc

	Block       *config.BlockContext
	ChainConfig *config.ChainConfig

	// MaxSteps bounds the number of instructions each frame may execute;
	// 0 means unbounded. The count is kept per Runner: a nested
	// CALL/CREATE frame starts its own count, so the instructions of a
	// whole top-level call are not summed against this bound. This
	// realizes the "recommended embedder-provided safeguard" of
	// SPEC_FULL.md §5.
	MaxSteps uint64
}

// HaltReason is the terminal state a Runner's main loop exits in.
type HaltReason int

const (
	HaltNone HaltReason = iota
	HaltStop
	HaltReturn
	HaltRevert
	HaltInvalid
	HaltError
)

func (h HaltReason) String() string {
	switch h {
	case HaltNone:
		return "none"
	case HaltStop:
		return "stop"
	case HaltReturn:
		return "return"
	case HaltRevert:
		return "revert"
	case HaltInvalid:
		return "invalid"
	case HaltError:
		return "error"
	default:
		return "unknown"
	}
}

// Success reports whether this halt reason represents a clean,
// non-reverted stop (STOP or RETURN).
func (h HaltReason) Success() bool { return h == HaltStop || h == HaltReturn }
