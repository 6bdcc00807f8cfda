package evm

import "github.com/entropyio/go-evm/word"

func init() {
	register(POP, &operation{name: "POP", exec: opPop, minStack: 1})

	for op := PUSH1; op <= PUSH32; op++ {
		register(op, &operation{name: "PUSH", exec: makePush(op.pushSize()), minStack: 0, movesPC: true})
	}
	for op := DUP1; op <= DUP16; op++ {
		register(op, &operation{name: "DUP", exec: makeDup(op.dupN()), minStack: minDupStack(op.dupN())})
	}
	for op := SWAP1; op <= SWAP16; op++ {
		register(op, &operation{name: "SWAP", exec: makeSwap(op.swapN()), minStack: minSwapStack(op.swapN())})
	}
}

func opPop(r *Runner) error {
	_, err := r.stack.Pop()
	return err
}

// makePush returns a handler for PUSH1..PUSH32: it reads n bytes
// immediately following the opcode (zero-padded if the code ends
// early, matching the reference engine's tolerant reader), pushes the
// resulting Word, and advances pc itself since that width is
// instruction-specific (movesPC: true).
func makePush(n int) instructionFn {
	return func(r *Runner) error {
		start := r.pc + 1
		end := start + n
		var buf [32]byte
		if start < len(r.bytecode) {
			copy(buf[32-n:], r.bytecode[start:min(end, len(r.bytecode))])
		}
		if err := r.stack.Push(word.FromBytes32(buf)); err != nil {
			return err
		}
		r.pc = end
		return nil
	}
}

func makeDup(n int) instructionFn {
	return func(r *Runner) error {
		return r.stack.Dup(n)
	}
}

func makeSwap(n int) instructionFn {
	return func(r *Runner) error {
		return r.stack.Swap(n)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
