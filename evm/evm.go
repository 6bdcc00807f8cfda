package evm

import (
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/state"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

// EVM coordinates a shared State and Context across however many
// Runner frames a top-level call ends up spawning. It is the
// counterpart of the reference engine's evm.EVM: the long-lived object
// an embedder constructs once and calls Call/Create on, while each
// individual activation gets its own short-lived Runner.
type EVM struct {
	Context
	State *state.State
}

// NewEVM constructs an EVM over the given State, under ctx.
func NewEVM(ctx Context, st *state.State) *EVM {
	return &EVM{Context: ctx, State: st}
}

// execute runs one child Runner to completion and returns it.
func (evm *EVM) execute(ctx CallContext, code []byte) *Runner {
	r := NewRunner(evm, ctx, code)
	r.Run()
	return r
}

// Call is the top-level entry point mirroring the reference engine's
// runtime.Call: it transfers value (if any), executes addr's code, and
// commits or reverts the whole attempt as a unit. InsufficientBalance
// and any clean non-success halt surface as success=false with no Go
// error; only a Fork error (the VM cannot make progress) is returned
// as err, per SPEC_FULL.md §7's propagation policy.
func (evm *EVM) Call(caller, addr common.Address, input []byte, value word.Word) (ret []byte, success bool, err error) {
	handle := evm.State.Snapshot()

	if !value.IsZero() {
		if terr := evm.Transfer(evm.State, caller, addr, value); terr != nil {
			evm.State.Revert(handle)
			return nil, false, nil
		}
	}

	code, err := evm.State.GetCodeErr(addr)
	if err != nil {
		evm.State.Revert(handle)
		if forkErr, ok := asForkError(err); ok {
			return nil, false, forkErr
		}
		return nil, false, nil
	}
	ctx := CallContext{
		Caller:    caller,
		Origin:    caller,
		Address:   addr,
		CallValue: value,
		CallData:  input,
		IsStatic:  false,
		Depth:     0,
	}
	child := evm.execute(ctx, code)

	switch child.halt {
	case HaltStop, HaltReturn:
		evm.State.Commit(handle)
		return child.Output(), true, nil
	case HaltRevert:
		evm.State.Revert(handle)
		return child.Output(), false, nil
	default:
		evm.State.Revert(handle)
		if forkErr, ok := asForkError(child.Err()); ok {
			return nil, false, forkErr
		}
		return nil, false, nil
	}
}

// Create is the top-level entry point mirroring the reference engine's
// runtime.Create: it derives the new contract's address from the
// caller's nonce, runs initCode with empty calldata, and installs the
// returned bytes as the new account's code on success.
func (evm *EVM) Create(caller common.Address, initCode []byte, value word.Word) (ret []byte, contractAddr common.Address, success bool, err error) {
	nonce := evm.State.IncrementNonce(caller)
	contractAddr = deriveCreateAddress(caller, nonce)

	handle := evm.State.Snapshot()
	if !value.IsZero() {
		if terr := evm.Transfer(evm.State, caller, contractAddr, value); terr != nil {
			evm.State.Revert(handle)
			return nil, contractAddr, false, nil
		}
	}

	ctx := CallContext{
		Caller:    caller,
		Origin:    caller,
		Address:   contractAddr,
		CallValue: value,
		CallData:  nil,
		IsStatic:  false,
		Depth:     0,
	}
	child := evm.execute(ctx, initCode)

	switch child.halt {
	case HaltStop, HaltReturn:
		evm.State.SetCode(contractAddr, child.Output())
		evm.State.Commit(handle)
		return child.Output(), contractAddr, true, nil
	case HaltRevert:
		evm.State.Revert(handle)
		return child.Output(), contractAddr, false, nil
	default:
		evm.State.Revert(handle)
		if forkErr, ok := asForkError(child.Err()); ok {
			return nil, contractAddr, false, forkErr
		}
		return nil, contractAddr, false, nil
	}
}

func asForkError(err error) (*vmerrors.Error, bool) {
	if err == nil {
		return nil, false
	}
	if verr, ok := err.(*vmerrors.Error); ok && verr.Kind == vmerrors.KindFork {
		return verr, true
	}
	return nil, false
}
