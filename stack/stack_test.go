package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

func TestPushPopRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(word.FromUint64(42)))
	got, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, word.FromUint64(42), got)
	assert.Equal(t, 0, s.Len())
}

func TestPopUnderflow(t *testing.T) {
	s := New()
	_, err := s.Pop()
	assert.ErrorIs(t, err, vmerrors.ErrStackUnderflow)
}

func TestPushOverflow(t *testing.T) {
	s := New()
	for i := 0; i < config.StackLimit; i++ {
		require.NoError(t, s.Push(word.FromUint64(uint64(i))))
	}
	err := s.Push(word.FromUint64(1))
	assert.ErrorIs(t, err, vmerrors.ErrStackOverflow)
}

func TestPeekDepth(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(word.FromUint64(1)))
	require.NoError(t, s.Push(word.FromUint64(2)))
	require.NoError(t, s.Push(word.FromUint64(3)))

	top, err := s.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, word.FromUint64(3), top)

	mid, err := s.Peek(1)
	require.NoError(t, err)
	assert.Equal(t, word.FromUint64(2), mid)
}

func TestSwap(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(word.FromUint64(1)))
	require.NoError(t, s.Push(word.FromUint64(2)))
	require.NoError(t, s.Swap(1))

	top, _ := s.Peek(0)
	bottom, _ := s.Peek(1)
	assert.Equal(t, word.FromUint64(1), top)
	assert.Equal(t, word.FromUint64(2), bottom)
}

func TestDup(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(word.FromUint64(9)))
	require.NoError(t, s.Dup(1))
	assert.Equal(t, 2, s.Len())
	top, _ := s.Peek(0)
	second, _ := s.Peek(1)
	assert.Equal(t, top, second)
}

func TestPush1ThenPopLeavesStackUnchanged(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(word.FromUint64(7)))
	_, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
