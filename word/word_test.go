package word

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommutativity(t *testing.T) {
	a := FromUint64(7)
	b := FromUint64(11)

	assert.Equal(t, Add(a, b), Add(b, a))
	assert.Equal(t, Mul(a, b), Mul(b, a))
}

func TestSubSelfIsZero(t *testing.T) {
	a := FromUint64(12345)
	assert.True(t, Sub(a, a).IsZero())
}

func TestDivModByZero(t *testing.T) {
	a := FromUint64(42)
	assert.True(t, Div(a, Zero()).IsZero())
	assert.True(t, Mod(a, Zero()).IsZero())
	assert.True(t, SDiv(a, Zero()).IsZero())
	assert.True(t, SMod(a, Zero()).IsZero())
}

func TestAddModMulModZeroModulus(t *testing.T) {
	a, b := FromUint64(3), FromUint64(5)
	assert.True(t, AddMod(a, b, Zero()).IsZero())
	assert.True(t, MulMod(a, b, Zero()).IsZero())
}

func TestNotInvolution(t *testing.T) {
	a := FromUint64(0xdeadbeef)
	assert.Equal(t, a, Not(Not(a)))
}

func TestSignExtendIdentityAtK31(t *testing.T) {
	a := FromBig(big.NewInt(-1))
	assert.Equal(t, a, SignExtend(FromUint64(31), a))
}

func TestSignExtendNegativeByte(t *testing.T) {
	// A single byte 0xff sign-extended (k=0) must equal -1 mod 2^256.
	x := FromUint64(0xff)
	got := SignExtend(Zero(), x)
	assert.Equal(t, MaxWord(), got)
}

func TestExpEdgeCases(t *testing.T) {
	assert.Equal(t, One(), Exp(Zero(), Zero()))
	assert.Equal(t, One(), Exp(FromUint64(5), Zero()))
	assert.True(t, Exp(Zero(), FromUint64(3)).IsZero())
}

func TestSarAllOnesOnLargeNegativeShift(t *testing.T) {
	negOne := FromBig(big.NewInt(-1))
	got := Sar(FromUint64(256), negOne)
	assert.Equal(t, MaxWord(), got)
}

func TestSdivMinByMinusOneSaturates(t *testing.T) {
	min := minI256()
	minusOne := FromBig(big.NewInt(-1))
	assert.Equal(t, min, SDiv(min, minusOne))
}

func TestComparisons(t *testing.T) {
	a, b := FromUint64(3), FromUint64(9)
	assert.Equal(t, One(), Lt(a, b))
	assert.Equal(t, Zero(), Gt(a, b))
	assert.Equal(t, One(), Eq(a, a))
	assert.Equal(t, One(), IsZeroWord(Zero()))
	assert.Equal(t, Zero(), IsZeroWord(a))
}

func TestByteIndexOutOfRange(t *testing.T) {
	a := FromUint64(0x1122)
	assert.True(t, Byte(FromUint64(32), a).IsZero())
}

func TestShiftRoundTrip(t *testing.T) {
	a := FromUint64(1)
	shifted := Shl(FromUint64(8), a)
	assert.Equal(t, FromUint64(256), shifted)
	assert.Equal(t, a, Shr(FromUint64(8), shifted))
}

// minI256 returns -2^255, the minimum two's-complement signed Word.
func minI256() Word {
	min := new(big.Int).Lsh(big.NewInt(1), 255)
	min.Neg(min)
	return FromBig(min)
}
