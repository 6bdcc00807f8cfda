package evm

import (
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/common/crypto"
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

func init() {
	register(CALL, &operation{name: "CALL", exec: opCall, minStack: 7})
	register(CALLCODE, &operation{name: "CALLCODE", exec: opCallCode, minStack: 7})
	register(DELEGATECALL, &operation{name: "DELEGATECALL", exec: opDelegateCall, minStack: 6})
	register(STATICCALL, &operation{name: "STATICCALL", exec: opStaticCall, minStack: 6})

	register(CREATE, &operation{name: "CREATE", exec: opCreate, minStack: 3, forbiddenStatic: true})
	register(CREATE2, &operation{name: "CREATE2", exec: opCreate2, minStack: 4, forbiddenStatic: true})

	register(SELFDESTRUCT, &operation{name: "SELFDESTRUCT", exec: opSelfDestruct, minStack: 1, forbiddenStatic: true})
}

// deriveCreateAddress derives the address CREATE assigns its new
// contract, wrapping crypto.CreateAddress with the Word-to-uint64
// nonce conversion the Account.Nonce field requires.
func deriveCreateAddress(caller common.Address, nonce word.Word) common.Address {
	return crypto.CreateAddress(caller, nonce.Uint64())
}

func deriveCreate2Address(caller common.Address, salt word.Word, initCode []byte) common.Address {
	saltBytes := salt.Bytes32()
	return crypto.CreateAddress2(caller, common.BytesToHash(saltBytes[:]), crypto.Keccak256(initCode))
}

// runChild executes one nested frame sharing the parent Runner's EVM
// and State, under its own snapshot. It returns the child's output and
// whether it halted cleanly; the parent's returnData is always updated
// (RETURNDATASIZE/RETURNDATACOPY read the most recent child's output,
// success or not), matching the reference engine's CALL family. A Fork
// error inside the child is not resolved into an ordinary 0-return: it
// is returned as forkErr so the calling opcode handler propagates it as
// its own failure, letting it climb one frame at a time up to the
// top-level Interpret/Call/Create (SPEC_FULL.md §7: Fork is the only
// error that propagates upward through all frames).
func (r *Runner) runChild(ctx CallContext, code []byte) (output []byte, success bool, forkErr error) {
	handle := r.evm.State.Snapshot()
	child := NewRunner(r.evm, ctx, code)
	child.Run()

	if ferr, ok := asForkError(child.Err()); ok {
		r.evm.State.Revert(handle)
		r.returnData = nil
		return nil, false, ferr
	}

	switch child.halt {
	case HaltStop, HaltReturn:
		r.evm.State.Commit(handle)
		r.returnData = child.Output()
		return child.Output(), true, nil
	case HaltRevert:
		r.evm.State.Revert(handle)
		r.returnData = child.Output()
		return child.Output(), false, nil
	default:
		r.evm.State.Revert(handle)
		r.returnData = nil
		return nil, false, nil
	}
}

type callKind int

const (
	kindCall callKind = iota
	kindCallCode
	kindDelegateCall
	kindStaticCall
)

func (r *Runner) doCall(kind callKind, hasValue bool) error {
	if _, err := r.stack.Pop(); err != nil { // gas, unused: no gas metering
		return err
	}
	addrWord, err := r.stack.Pop()
	if err != nil {
		return err
	}
	var value word.Word
	if hasValue {
		value, err = r.stack.Pop()
		if err != nil {
			return err
		}
	} else {
		value = word.Zero()
	}
	argsOffset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	argsLength, err := r.stack.Pop()
	if err != nil {
		return err
	}
	retOffset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	retLength, err := r.stack.Pop()
	if err != nil {
		return err
	}

	isStatic := r.ctx.IsStatic || kind == kindStaticCall
	if isStatic && !value.IsZero() && kind == kindCall {
		return vmerrors.ErrStaticViolation
	}

	if r.ctx.Depth+1 >= config.CallDepthLimit {
		r.recordSoftError(vmerrors.ErrCallDepthExceeded)
		return r.stack.Push(word.Zero())
	}

	target := addressFromWord(addrWord)
	input := r.memory.ReadGrowing(int(argsOffset.Uint64()), int(argsLength.Uint64()))

	var callAddress, callCaller common.Address
	var callValue word.Word
	switch kind {
	case kindCall, kindStaticCall:
		callAddress, callCaller, callValue = target, r.ctx.Address, value
	case kindCallCode:
		callAddress, callCaller, callValue = r.ctx.Address, r.ctx.Address, value
	case kindDelegateCall:
		callAddress, callCaller, callValue = r.ctx.Address, r.ctx.Caller, r.ctx.CallValue
	}

	// The value transfer happens under the same snapshot as the child, so
	// a child that does not halt cleanly also undoes the transfer.
	handle := r.evm.State.Snapshot()

	// CALLCODE, like CALL, transfers value before running the child, but
	// self-to-self: the executing account both pays and receives, since
	// the code runs against the caller's own storage.
	if (kind == kindCall || kind == kindCallCode) && !value.IsZero() {
		transferTo := target
		if kind == kindCallCode {
			transferTo = r.ctx.Address
		}
		if !r.evm.CanTransfer(r.evm.State, r.ctx.Address, value) {
			r.evm.State.Revert(handle)
			r.recordSoftError(vmerrors.ErrInsufficientBalance)
			return r.stack.Push(word.Zero())
		}
		if err := r.evm.Transfer(r.evm.State, r.ctx.Address, transferTo, value); err != nil {
			r.evm.State.Revert(handle)
			r.recordSoftError(err)
			return r.stack.Push(word.Zero())
		}
	}

	code, err := r.evm.State.GetCodeErr(target)
	if err != nil {
		r.evm.State.Revert(handle)
		return err
	}
	childCtx := CallContext{
		Caller:    callCaller,
		Origin:    r.ctx.Origin,
		Address:   callAddress,
		CallValue: callValue,
		CallData:  input,
		IsStatic:  isStatic,
		Depth:     r.ctx.Depth + 1,
	}

	output, success, forkErr := r.runChild(childCtx, code)
	if success {
		r.evm.State.Commit(handle)
	} else {
		r.evm.State.Revert(handle)
	}
	if forkErr != nil {
		return forkErr
	}
	r.memory.Write(int(retOffset.Uint64()), padOrTruncate(output, min(len(output), int(retLength.Uint64()))))

	if success {
		return r.stack.Push(word.One())
	}
	return r.stack.Push(word.Zero())
}

func padOrTruncate(data []byte, length int) []byte {
	out := make([]byte, length)
	copy(out, data)
	return out
}

func opCall(r *Runner) error         { return r.doCall(kindCall, true) }
func opCallCode(r *Runner) error     { return r.doCall(kindCallCode, true) }
func opDelegateCall(r *Runner) error { return r.doCall(kindDelegateCall, false) }
func opStaticCall(r *Runner) error   { return r.doCall(kindStaticCall, false) }

func (r *Runner) doCreate(salted bool) error {
	value, err := r.stack.Pop()
	if err != nil {
		return err
	}
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	length, err := r.stack.Pop()
	if err != nil {
		return err
	}
	var salt word.Word
	if salted {
		salt, err = r.stack.Pop()
		if err != nil {
			return err
		}
	}

	if r.ctx.Depth+1 >= config.CallDepthLimit {
		r.recordSoftError(vmerrors.ErrCallDepthExceeded)
		return r.stack.Push(word.Zero())
	}

	initCode := r.memory.ReadGrowing(int(offset.Uint64()), int(length.Uint64()))

	if !value.IsZero() && !r.evm.CanTransfer(r.evm.State, r.ctx.Address, value) {
		r.recordSoftError(vmerrors.ErrInsufficientBalance)
		return r.stack.Push(word.Zero())
	}

	nonce := r.evm.State.IncrementNonce(r.ctx.Address)
	var contractAddr common.Address
	if salted {
		contractAddr = deriveCreate2Address(r.ctx.Address, salt, initCode)
	} else {
		contractAddr = deriveCreateAddress(r.ctx.Address, nonce)
	}

	handle := r.evm.State.Snapshot()
	if !value.IsZero() {
		if err := r.evm.Transfer(r.evm.State, r.ctx.Address, contractAddr, value); err != nil {
			r.evm.State.Revert(handle)
			r.recordSoftError(err)
			return r.stack.Push(word.Zero())
		}
	}

	childCtx := CallContext{
		Caller:    r.ctx.Address,
		Origin:    r.ctx.Origin,
		Address:   contractAddr,
		CallValue: value,
		CallData:  nil,
		IsStatic:  r.ctx.IsStatic,
		Depth:     r.ctx.Depth + 1,
	}
	child := NewRunner(r.evm, childCtx, initCode)
	child.Run()

	if ferr, ok := asForkError(child.Err()); ok {
		r.evm.State.Revert(handle)
		r.returnData = nil
		return ferr
	}

	switch child.halt {
	case HaltStop, HaltReturn:
		r.evm.State.SetCode(contractAddr, child.Output())
		r.evm.State.Commit(handle)
		r.returnData = nil
		return r.stack.Push(word.FromBytes(contractAddr.Bytes()))
	default:
		r.evm.State.Revert(handle)
		r.returnData = child.Output()
		return r.stack.Push(word.Zero())
	}
}

func opCreate(r *Runner) error  { return r.doCreate(false) }
func opCreate2(r *Runner) error { return r.doCreate(true) }

// opSelfDestruct transfers the frame's entire balance to beneficiary
// and halts the frame. This emulator has no block-level notion of
// "destroyed accounts" to sweep at the end of a transaction
// (SPEC_FULL.md Non-goals exclude gas refunds and post-Cancun nuances);
// it implements the balance-sweep effect and halts, which is the part
// with observable State effect.
func opSelfDestruct(r *Runner) error {
	b, err := r.stack.Pop()
	if err != nil {
		return err
	}
	beneficiary := addressFromWord(b)
	balance := r.evm.State.GetBalance(r.ctx.Address)
	if !balance.IsZero() {
		if err := r.evm.Transfer(r.evm.State, r.ctx.Address, beneficiary, balance); err != nil {
			return err
		}
	}
	r.evm.State.SetBalance(r.ctx.Address, word.Zero())
	r.halt = HaltStop
	return nil
}
