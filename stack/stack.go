// Package stack implements the Runner's bounded LIFO operand stack: a
// sequence of up to 1024 Words with indexed peek/swap for DUP/SWAP.
package stack

import (
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

// Stack is a bounded LIFO of word.Word. The zero value is not ready to
// use; construct with New.
type Stack struct {
	data []word.Word
}

// New returns an empty Stack.
func New() *Stack {
	return &Stack{data: make([]word.Word, 0, 16)}
}

// Len returns the current number of elements.
func (s *Stack) Len() int { return len(s.data) }

// Push appends w to the top of the stack, failing with StackOverflow if
// that would exceed config.StackLimit.
func (s *Stack) Push(w word.Word) error {
	if len(s.data) >= config.StackLimit {
		return vmerrors.ErrStackOverflow
	}
	s.data = append(s.data, w)
	return nil
}

// Pop removes and returns the top element, failing with StackUnderflow
// if the stack is empty.
func (s *Stack) Pop() (word.Word, error) {
	if len(s.data) == 0 {
		return word.Zero(), vmerrors.ErrStackUnderflow
	}
	n := len(s.data) - 1
	w := s.data[n]
	s.data = s.data[:n]
	return w, nil
}

// Peek returns the element at depth n from the top (n=0 is the top)
// without removing it.
func (s *Stack) Peek(n int) (word.Word, error) {
	idx := len(s.data) - 1 - n
	if idx < 0 || n < 0 {
		return word.Zero(), vmerrors.ErrStackUnderflow
	}
	return s.data[idx], nil
}

// Swap exchanges the top element with the element at depth n (n>=1),
// failing with StackUnderflow if depth n is not present.
func (s *Stack) Swap(n int) error {
	top := len(s.data) - 1
	other := top - n
	if other < 0 || top < 0 {
		return vmerrors.ErrStackUnderflow
	}
	s.data[top], s.data[other] = s.data[other], s.data[top]
	return nil
}

// Dup pushes a copy of the element at depth n-1 (n=1 duplicates the
// top), failing with StackUnderflow/StackOverflow as appropriate.
func (s *Stack) Dup(n int) error {
	w, err := s.Peek(n - 1)
	if err != nil {
		return err
	}
	return s.Push(w)
}
