package evm

import (
	"github.com/entropyio/go-evm/common/crypto"
	"github.com/entropyio/go-evm/word"
)

func init() {
	register(MLOAD, &operation{name: "MLOAD", exec: opMload, minStack: 1})
	register(MSTORE, &operation{name: "MSTORE", exec: opMstore, minStack: 2})
	register(MSTORE8, &operation{name: "MSTORE8", exec: opMstore8, minStack: 2})
	register(MSIZE, &operation{name: "MSIZE", exec: opMsize, minStack: 0})

	register(SLOAD, &operation{name: "SLOAD", exec: opSload, minStack: 1})
	register(SSTORE, &operation{name: "SSTORE", exec: opSstore, minStack: 2, forbiddenStatic: true})

	register(SHA3, &operation{name: "SHA3", exec: opSha3, minStack: 2})
}

func opMload(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	return r.stack.Push(r.memory.Load32(int(offset.Uint64())))
}

func opMstore(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	value, err := r.stack.Pop()
	if err != nil {
		return err
	}
	r.memory.Store32(int(offset.Uint64()), value)
	return nil
}

func opMstore8(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	value, err := r.stack.Pop()
	if err != nil {
		return err
	}
	b := value.Bytes32()
	r.memory.Store1(int(offset.Uint64()), b[31])
	return nil
}

func opMsize(r *Runner) error {
	return r.stack.Push(word.FromUint64(uint64(r.memory.Size())))
}

func opSload(r *Runner) error {
	key, err := r.stack.Pop()
	if err != nil {
		return err
	}
	v, err := r.evm.State.GetStorageErr(r.ctx.Address, key)
	if err != nil {
		return err
	}
	return r.stack.Push(v)
}

func opSstore(r *Runner) error {
	key, err := r.stack.Pop()
	if err != nil {
		return err
	}
	value, err := r.stack.Pop()
	if err != nil {
		return err
	}
	r.evm.State.SetStorage(r.ctx.Address, key, value)
	return nil
}

func opSha3(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	length, err := r.stack.Pop()
	if err != nil {
		return err
	}
	data := r.memory.ReadGrowing(int(offset.Uint64()), int(length.Uint64()))
	digest := crypto.Keccak256(data)
	return r.stack.Push(word.FromBytes(digest))
}
