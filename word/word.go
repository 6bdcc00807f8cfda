// Package word implements the VM's native 256-bit value: wraparound
// unsigned arithmetic with two's-complement signed interpretation,
// grounded directly on github.com/holiman/uint256, whose method set
// already encodes the EVM's div/mod-by-zero-is-zero and MIN/-1
// saturation conventions. Every operation here is a pure function of
// its operands — no operation mutates its arguments — so the Runner can
// pass Words around as plain values, matching SPEC_FULL.md §4.1.
package word

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Word is a 256-bit value. The zero Word is the integer 0.
type Word uint256.Int

// Zero is the additive identity.
func Zero() Word { return Word{} }

// One is the multiplicative identity.
func One() Word {
	var u uint256.Int
	u.SetOne()
	return Word(u)
}

// MaxWord is the all-ones value, 2^256 - 1.
func MaxWord() Word {
	var u uint256.Int
	u.SetAllOne()
	return Word(u)
}

// FromUint64 converts a machine word into a Word.
func FromUint64(n uint64) Word { return Word(*uint256.NewInt(n)) }

// FromBig converts a big.Int into a Word, wrapping modulo 2^256 and
// treating a negative input as already-wrapped (matching uint256's own
// FromBig truncation behavior).
func FromBig(b *big.Int) Word {
	u, _ := uint256.FromBig(b)
	return Word(*u)
}

// FromBytes interprets b as a big-endian, arbitrary-length byte string
// and returns the corresponding Word, truncating from the left if b is
// longer than 32 bytes.
func FromBytes(b []byte) Word {
	var u uint256.Int
	u.SetBytes(b)
	return Word(u)
}

// FromBytes32 interprets the 32-byte array as a big-endian Word.
func FromBytes32(b [32]byte) Word {
	var u uint256.Int
	u.SetBytes32(b[:])
	return Word(u)
}

func (w Word) u() uint256.Int { return uint256.Int(w) }

// Bytes32 encodes w as a big-endian 32-byte array.
func (w Word) Bytes32() [32]byte {
	u := w.u()
	return u.Bytes32()
}

// Bytes encodes w as a big-endian byte slice with no leading zero bytes
// (the empty slice for zero).
func (w Word) Bytes() []byte {
	u := w.u()
	return u.Bytes()
}

// Big returns w as a *big.Int.
func (w Word) Big() *big.Int {
	u := w.u()
	return u.ToBig()
}

// String renders w in decimal, the same as uint256.Int.String.
func (w Word) String() string {
	u := w.u()
	return u.String()
}

// Uint64 returns the low 64 bits of w.
func (w Word) Uint64() uint64 {
	u := w.u()
	return u.Uint64()
}

// IsZero reports whether w is the zero Word.
func (w Word) IsZero() bool {
	u := w.u()
	return u.IsZero()
}

// Cmp returns -1, 0 or 1 comparing w and other as unsigned integers.
func (w Word) Cmp(other Word) int {
	a, b := w.u(), other.u()
	return a.Cmp(&b)
}

// Sign returns -1, 0 or 1 treating w as a two's-complement signed value.
func (w Word) Sign() int {
	u := w.u()
	return u.Sign()
}

func binOp(a, b Word, f func(z, x, y *uint256.Int) *uint256.Int) Word {
	x, y := a.u(), b.u()
	var z uint256.Int
	f(&z, &x, &y)
	return Word(z)
}

// Add returns a + b mod 2^256.
func Add(a, b Word) Word { return binOp(a, b, (*uint256.Int).Add) }

// Sub returns a - b mod 2^256.
func Sub(a, b Word) Word { return binOp(a, b, (*uint256.Int).Sub) }

// Mul returns a * b mod 2^256.
func Mul(a, b Word) Word { return binOp(a, b, (*uint256.Int).Mul) }

// Div returns the unsigned quotient a / b, or 0 if b is zero.
func Div(a, b Word) Word { return binOp(a, b, (*uint256.Int).Div) }

// SDiv returns the two's-complement signed quotient a / b. SDiv(MIN, -1)
// == MIN (saturating, matching EVM semantics), and SDiv(a, 0) == 0.
func SDiv(a, b Word) Word { return binOp(a, b, (*uint256.Int).SDiv) }

// Mod returns the unsigned remainder a % b, or 0 if b is zero.
func Mod(a, b Word) Word { return binOp(a, b, (*uint256.Int).Mod) }

// SMod returns the two's-complement signed remainder a % b, or 0 if b is
// zero.
func SMod(a, b Word) Word { return binOp(a, b, (*uint256.Int).SMod) }

// AddMod returns (a + b) % n, or 0 if n is zero.
func AddMod(a, b, n Word) Word {
	x, y, m := a.u(), b.u(), n.u()
	var z uint256.Int
	if m.IsZero() {
		return Zero()
	}
	z.AddMod(&x, &y, &m)
	return Word(z)
}

// MulMod returns (a * b) % n, or 0 if n is zero.
func MulMod(a, b, n Word) Word {
	x, y, m := a.u(), b.u(), n.u()
	var z uint256.Int
	if m.IsZero() {
		return Zero()
	}
	z.MulMod(&x, &y, &m)
	return Word(z)
}

// Exp returns base ** exponent mod 2^256.
func Exp(base, exponent Word) Word { return binOp(base, exponent, (*uint256.Int).Exp) }

// SignExtend sign-extends x as if it were a (k+1)-byte signed integer;
// k >= 31 is the identity.
func SignExtend(k, x Word) Word {
	kk, xx := k.u(), x.u()
	var z uint256.Int
	z.ExtendSign(&xx, &kk)
	return Word(z)
}

func cmpOp(a, b Word, f func(x, y *uint256.Int) bool) Word {
	x, y := a.u(), b.u()
	if f(&x, &y) {
		return One()
	}
	return Zero()
}

// Lt returns 1 if a < b (unsigned), else 0.
func Lt(a, b Word) Word { return cmpOp(a, b, (*uint256.Int).Lt) }

// Gt returns 1 if a > b (unsigned), else 0.
func Gt(a, b Word) Word { return cmpOp(a, b, (*uint256.Int).Gt) }

// Slt returns 1 if a < b (signed), else 0.
func Slt(a, b Word) Word { return cmpOp(a, b, (*uint256.Int).Slt) }

// Sgt returns 1 if a > b (signed), else 0.
func Sgt(a, b Word) Word { return cmpOp(a, b, (*uint256.Int).Sgt) }

// Eq returns 1 if a == b, else 0.
func Eq(a, b Word) Word { return cmpOp(a, b, (*uint256.Int).Eq) }

// IsZeroWord returns 1 if a == 0, else 0 (the ISZERO opcode; IsZero the
// method is the plain bool form used internally).
func IsZeroWord(a Word) Word {
	if a.IsZero() {
		return One()
	}
	return Zero()
}

// And returns the bitwise AND of a and b.
func And(a, b Word) Word { return binOp(a, b, (*uint256.Int).And) }

// Or returns the bitwise OR of a and b.
func Or(a, b Word) Word { return binOp(a, b, (*uint256.Int).Or) }

// Xor returns the bitwise XOR of a and b.
func Xor(a, b Word) Word { return binOp(a, b, (*uint256.Int).Xor) }

// Not returns the bitwise complement of a.
func Not(a Word) Word {
	x := a.u()
	var z uint256.Int
	z.Not(&x)
	return Word(z)
}

// Byte returns the i-th byte of x counting from the most significant
// end, or 0 if i >= 32.
func Byte(i, x Word) Word {
	ii := i.u()
	z := x.u()
	z.Byte(&ii)
	return Word(z)
}

// Shl returns a << shift, truncated to 256 bits.
func Shl(shift, a Word) Word {
	s, x := shift.u(), a.u()
	var z uint256.Int
	if s.GtUint64(255) {
		return Zero()
	}
	z.Lsh(&x, uint(s.Uint64()))
	return Word(z)
}

// Shr returns the logical a >> shift.
func Shr(shift, a Word) Word {
	s, x := shift.u(), a.u()
	var z uint256.Int
	if s.GtUint64(255) {
		return Zero()
	}
	z.Rsh(&x, uint(s.Uint64()))
	return Word(z)
}

// Sar returns the arithmetic (sign-preserving) a >> shift. A shift of
// 256 or more fills with the sign bit.
func Sar(shift, a Word) Word {
	s, x := shift.u(), a.u()
	if s.GtUint64(255) {
		if x.Sign() >= 0 {
			return Zero()
		}
		return MaxWord()
	}
	var z uint256.Int
	z.SRsh(&x, uint(s.Uint64()))
	return Word(z)
}
