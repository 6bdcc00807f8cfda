package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entropyio/go-evm/word"
)

func TestInitiallyEmpty(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.Size())
}

func TestStoreLoadRoundTrip(t *testing.T) {
	m := New()
	v := word.FromUint64(0xcafebabe)
	m.Store32(0, v)
	assert.Equal(t, v, m.Load32(0))
}

func TestStore1ThenLoadLowByte(t *testing.T) {
	m := New()
	m.Store1(0, 0xab)
	b := m.Load32(0).Bytes32()
	assert.Equal(t, byte(0xab), b[0])
}

func TestGrowthRoundsUpTo32(t *testing.T) {
	m := New()
	m.Store1(40, 0x01)
	assert.Equal(t, 64, m.Size())
}

func TestZeroLengthReadDoesNotGrow(t *testing.T) {
	m := New()
	out := m.Read(100, 0)
	assert.Empty(t, out)
	assert.Equal(t, 0, m.Size())
}

func TestReadPastEndIsZeroPadded(t *testing.T) {
	m := New()
	m.Store1(31, 0xff)
	out := m.Read(31, 4)
	assert.Equal(t, []byte{0xff, 0, 0, 0}, out)
}

func TestReadGrowingExpandsSize(t *testing.T) {
	m := New()
	m.ReadGrowing(10, 5)
	assert.Equal(t, 32, m.Size())
}

func TestWriteThenRead(t *testing.T) {
	m := New()
	m.Write(5, []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, m.Read(5, 3))
}
