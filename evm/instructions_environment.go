package evm

import (
	"github.com/entropyio/go-evm/common/crypto"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

func init() {
	register(ADDRESS, &operation{name: "ADDRESS", exec: opAddress, minStack: 0})
	register(BALANCE, &operation{name: "BALANCE", exec: opBalance, minStack: 1})
	register(ORIGIN, &operation{name: "ORIGIN", exec: opOrigin, minStack: 0})
	register(CALLER, &operation{name: "CALLER", exec: opCaller, minStack: 0})
	register(CALLVALUE, &operation{name: "CALLVALUE", exec: opCallValue, minStack: 0})
	register(CALLDATALOAD, &operation{name: "CALLDATALOAD", exec: opCallDataLoad, minStack: 1})
	register(CALLDATASIZE, &operation{name: "CALLDATASIZE", exec: opCallDataSize, minStack: 0})
	register(CALLDATACOPY, &operation{name: "CALLDATACOPY", exec: opCallDataCopy, minStack: 3})
	register(CODESIZE, &operation{name: "CODESIZE", exec: opCodeSize, minStack: 0})
	register(CODECOPY, &operation{name: "CODECOPY", exec: opCodeCopy, minStack: 3})
	register(GASPRICE, &operation{name: "GASPRICE", exec: opGasPrice, minStack: 0})
	register(EXTCODESIZE, &operation{name: "EXTCODESIZE", exec: opExtCodeSize, minStack: 1})
	register(EXTCODECOPY, &operation{name: "EXTCODECOPY", exec: opExtCodeCopy, minStack: 4})
	register(RETURNDATASIZE, &operation{name: "RETURNDATASIZE", exec: opReturnDataSize, minStack: 0})
	register(RETURNDATACOPY, &operation{name: "RETURNDATACOPY", exec: opReturnDataCopy, minStack: 3})
	register(EXTCODEHASH, &operation{name: "EXTCODEHASH", exec: opExtCodeHash, minStack: 1})
	register(SELFBALANCE, &operation{name: "SELFBALANCE", exec: opSelfBalance, minStack: 0})

	register(CHAINID, &operation{name: "CHAINID", exec: opChainID, minStack: 0})
	register(BLOCKHASH, &operation{name: "BLOCKHASH", exec: opBlockHash, minStack: 1})
	register(COINBASE, &operation{name: "COINBASE", exec: opCoinbase, minStack: 0})
	register(TIMESTAMP, &operation{name: "TIMESTAMP", exec: opTimestamp, minStack: 0})
	register(NUMBER, &operation{name: "NUMBER", exec: opNumber, minStack: 0})
	register(PREVRANDAO, &operation{name: "PREVRANDAO", exec: opPrevRandao, minStack: 0})
	register(GASLIMIT, &operation{name: "GASLIMIT", exec: opGasLimit, minStack: 0})
	register(BASEFEE, &operation{name: "BASEFEE", exec: opBaseFee, minStack: 0})
}

func opAddress(r *Runner) error {
	return r.stack.Push(word.FromBytes(r.ctx.Address.Bytes()))
}

func opBalance(r *Runner) error {
	a, err := r.stack.Pop()
	if err != nil {
		return err
	}
	addr := addressFromWord(a)
	bal, err := r.evm.State.GetBalanceErr(addr)
	if err != nil {
		return err
	}
	return r.stack.Push(bal)
}

func opOrigin(r *Runner) error {
	return r.stack.Push(word.FromBytes(r.ctx.Origin.Bytes()))
}

func opCaller(r *Runner) error {
	return r.stack.Push(word.FromBytes(r.ctx.Caller.Bytes()))
}

func opCallValue(r *Runner) error {
	return r.stack.Push(r.ctx.CallValue)
}

func opCallDataLoad(r *Runner) error {
	offset, err := r.stack.Pop()
	if err != nil {
		return err
	}
	return r.stack.Push(word.FromBytes32(readPadded32(r.ctx.CallData, int(offset.Uint64()))))
}

func opCallDataSize(r *Runner) error {
	return r.stack.Push(word.FromUint64(uint64(len(r.ctx.CallData))))
}

func opCallDataCopy(r *Runner) error {
	return copyToMemory(r, r.ctx.CallData)
}

func opCodeSize(r *Runner) error {
	return r.stack.Push(word.FromUint64(uint64(len(r.bytecode))))
}

func opCodeCopy(r *Runner) error {
	return copyToMemory(r, r.bytecode)
}

func opGasPrice(r *Runner) error {
	return r.stack.Push(word.Zero())
}

func opExtCodeSize(r *Runner) error {
	a, err := r.stack.Pop()
	if err != nil {
		return err
	}
	code, err := r.evm.State.GetCodeErr(addressFromWord(a))
	if err != nil {
		return err
	}
	return r.stack.Push(word.FromUint64(uint64(len(code))))
}

func opExtCodeCopy(r *Runner) error {
	a, err := r.stack.Pop()
	if err != nil {
		return err
	}
	code, err := r.evm.State.GetCodeErr(addressFromWord(a))
	if err != nil {
		return err
	}
	return copyToMemory(r, code)
}

func opReturnDataSize(r *Runner) error {
	return r.stack.Push(word.FromUint64(uint64(len(r.returnData))))
}

// opReturnDataCopy pops (destOffset, offset, length) like the other
// *COPY opcodes, but unlike them does not zero-pad a source read past
// the end of the buffer: RETURNDATACOPY's source is the fixed-size
// output of the most recent sub-call, and reading past it is a defined
// error (SPEC_FULL.md §7's OutOfBounds), not a zero-fill.
func opReturnDataCopy(r *Runner) error {
	destOffset, err := r.stack.Pop()
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
	off, n := int(offset.Uint64()), int(length.Uint64())
	if off < 0 || n < 0 || off+n > len(r.returnData) {
		return vmerrors.ErrOutOfBounds
	}
	r.memory.Write(int(destOffset.Uint64()), r.returnData[off:off+n])
	return nil
}

func opExtCodeHash(r *Runner) error {
	a, err := r.stack.Pop()
	if err != nil {
		return err
	}
	addr := addressFromWord(a)
	code, err := r.evm.State.GetCodeErr(addr)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return r.stack.Push(word.Zero())
	}
	return r.stack.Push(word.FromBytes(crypto.Keccak256(code)))
}

func opSelfBalance(r *Runner) error {
	bal, err := r.evm.State.GetBalanceErr(r.ctx.Address)
	if err != nil {
		return err
	}
	return r.stack.Push(bal)
}

func opChainID(r *Runner) error {
	return r.stack.Push(word.FromBig(r.evm.ChainConfig.ChainID))
}

func opBlockHash(r *Runner) error {
	n, err := r.stack.Pop()
	if err != nil {
		return err
	}
	h := r.evm.Block.GetHash(n.Uint64())
	return r.stack.Push(word.FromBytes(h.Bytes()))
}

func opCoinbase(r *Runner) error {
	return r.stack.Push(word.FromBytes(r.evm.Block.Coinbase.Bytes()))
}

func opTimestamp(r *Runner) error {
	return r.stack.Push(word.FromBig(r.evm.Block.Timestamp))
}

func opNumber(r *Runner) error {
	return r.stack.Push(word.FromBig(r.evm.Block.Number))
}

func opPrevRandao(r *Runner) error {
	return r.stack.Push(word.FromBytes(r.evm.Block.PrevRandao.Bytes()))
}

func opGasLimit(r *Runner) error {
	return r.stack.Push(word.FromUint64(r.evm.Block.GasLimit))
}

func opBaseFee(r *Runner) error {
	return r.stack.Push(word.FromBig(r.evm.Block.BaseFee))
}

// readPadded32 reads a 32-byte window starting at offset from data,
// zero-padding past the end (CALLDATALOAD's defined behavior for
// reads that run off the end of calldata).
func readPadded32(data []byte, offset int) [32]byte {
	var out [32]byte
	if offset >= len(data) || offset < 0 {
		return out
	}
	n := copy(out[:], data[offset:])
	_ = n
	return out
}

// copyToMemory implements the shared *COPY opcode shape: pop
// (destOffset, offset, length), write length bytes from src starting
// at offset (zero-padded past the end) into memory at destOffset.
func copyToMemory(r *Runner, src []byte) error {
	destOffset, err := r.stack.Pop()
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
	n := int(length.Uint64())
	buf := make([]byte, n)
	off := int(offset.Uint64())
	if off < len(src) {
		copy(buf, src[off:])
	}
	r.memory.Write(int(destOffset.Uint64()), buf)
	return nil
}
