package evm

import (
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

func init() {
	register(STOP, &operation{name: "STOP", exec: opStop, minStack: 0})
	register(JUMP, &operation{name: "JUMP", exec: opJump, minStack: 1, movesPC: true})
	register(JUMPI, &operation{name: "JUMPI", exec: opJumpi, minStack: 2, movesPC: true})
	register(JUMPDEST, &operation{name: "JUMPDEST", exec: opNoop, minStack: 0})
	register(PC, &operation{name: "PC", exec: opPc, minStack: 0})
	register(GAS, &operation{name: "GAS", exec: opGas, minStack: 0})
	register(RETURN, &operation{name: "RETURN", exec: opReturn, minStack: 2})
	register(REVERT, &operation{name: "REVERT", exec: opRevert, minStack: 2})
	register(INVALID, &operation{name: "INVALID", exec: opInvalid, minStack: 0})
}

func opNoop(r *Runner) error { return nil }

func opStop(r *Runner) error {
	r.halt = HaltStop
	return nil
}

func opJump(r *Runner) error {
	dest, err := r.stack.Pop()
	if err != nil {
		return err
	}
	target := int(dest.Uint64())
	if !r.jumpdests.isValid(target) {
		return vmerrors.ErrInvalidJump
	}
	r.pc = target
	return nil
}

func opJumpi(r *Runner) error {
	dest, err := r.stack.Pop()
	if err != nil {
		return err
	}
	cond, err := r.stack.Pop()
	if err != nil {
		return err
	}
	if cond.IsZero() {
		r.pc++
		return nil
	}
	target := int(dest.Uint64())
	if !r.jumpdests.isValid(target) {
		return vmerrors.ErrInvalidJump
	}
	r.pc = target
	return nil
}

func opPc(r *Runner) error {
	return r.stack.Push(word.FromUint64(uint64(r.pc)))
}

// opGas reports zero: this emulator tracks no gas metering
// (SPEC_FULL.md Non-goals), so GAS always yields the zero word rather
// than an arbitrary or undefined value.
func opGas(r *Runner) error {
	return r.stack.Push(word.Zero())
}

func opReturn(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	length, err := r.stack.Pop()
	if err != nil {
		return err
	}
	r.output = r.memory.ReadGrowing(int(offset.Uint64()), int(length.Uint64()))
	r.halt = HaltReturn
	return nil
}

func opRevert(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	length, err := r.stack.Pop()
	if err != nil {
		return err
	}
	r.output = r.memory.ReadGrowing(int(offset.Uint64()), int(length.Uint64()))
	r.halt = HaltRevert
	return nil
}

func opInvalid(r *Runner) error {
	r.err = vmerrors.ErrInvalidOpcode
	r.halt = HaltInvalid
	return nil
}
