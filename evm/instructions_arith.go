package evm

import "github.com/entropyio/go-evm/word"

func init() {
	register(ADD, &operation{name: "ADD", exec: opBin(word.Add), minStack: 2})
	register(MUL, &operation{name: "MUL", exec: opBin(word.Mul), minStack: 2})
	register(SUB, &operation{name: "SUB", exec: opBin(word.Sub), minStack: 2})
	register(DIV, &operation{name: "DIV", exec: opBin(word.Div), minStack: 2})
	register(SDIV, &operation{name: "SDIV", exec: opBin(word.SDiv), minStack: 2})
	register(MOD, &operation{name: "MOD", exec: opBin(word.Mod), minStack: 2})
	register(SMOD, &operation{name: "SMOD", exec: opBin(word.SMod), minStack: 2})
	register(EXP, &operation{name: "EXP", exec: opBin(word.Exp), minStack: 2})
	register(SIGNEXTEND, &operation{name: "SIGNEXTEND", exec: opBin(word.SignExtend), minStack: 2})

	register(ADDMOD, &operation{name: "ADDMOD", exec: opTernary(word.AddMod), minStack: 3})
	register(MULMOD, &operation{name: "MULMOD", exec: opTernary(word.MulMod), minStack: 3})

	register(LT, &operation{name: "LT", exec: opBin(word.Lt), minStack: 2})
	register(GT, &operation{name: "GT", exec: opBin(word.Gt), minStack: 2})
	register(SLT, &operation{name: "SLT", exec: opBin(word.Slt), minStack: 2})
	register(SGT, &operation{name: "SGT", exec: opBin(word.Sgt), minStack: 2})
	register(EQ, &operation{name: "EQ", exec: opBin(word.Eq), minStack: 2})
	register(ISZERO, &operation{name: "ISZERO", exec: opUnary(word.IsZeroWord), minStack: 1})

	register(AND, &operation{name: "AND", exec: opBin(word.And), minStack: 2})
	register(OR, &operation{name: "OR", exec: opBin(word.Or), minStack: 2})
	register(XOR, &operation{name: "XOR", exec: opBin(word.Xor), minStack: 2})
	register(NOT, &operation{name: "NOT", exec: opUnary(word.Not), minStack: 1})
	register(BYTE, &operation{name: "BYTE", exec: opBin(word.Byte), minStack: 2})
	register(SHL, &operation{name: "SHL", exec: opBin(word.Shl), minStack: 2})
	register(SHR, &operation{name: "SHR", exec: opBin(word.Shr), minStack: 2})
	register(SAR, &operation{name: "SAR", exec: opBin(word.Sar), minStack: 2})
}

// opBin lifts a pure (a,b) -> result Word function into an
// instructionFn: pop a, pop b, push f(a,b). The stack pops the first
// operand off the top, matching the standard EVM operand order (e.g.
// for SUB/DIV, a is the top of stack, so `6002 6005 03` computes 5-2).
func opBin(f func(a, b word.Word) word.Word) instructionFn {
	return func(r *Runner) error {
		a, err := r.stack.Pop()
		if err != nil {
			return err
		}
		b, err := r.stack.Pop()
		if err != nil {
			return err
		}
		return r.stack.Push(f(a, b))
	}
}

func opUnary(f func(a word.Word) word.Word) instructionFn {
	return func(r *Runner) error {
		a, err := r.stack.Pop()
		if err != nil {
			return err
		}
		return r.stack.Push(f(a))
	}
}

func opTernary(f func(a, b, n word.Word) word.Word) instructionFn {
	return func(r *Runner) error {
		a, err := r.stack.Pop()
		if err != nil {
			return err
		}
		b, err := r.stack.Pop()
		if err != nil {
			return err
		}
		n, err := r.stack.Pop()
		if err != nil {
			return err
		}
		return r.stack.Push(f(a, b, n))
	}
}
