// Package chain provides the default CanTransfer/Transfer callbacks an
// embedder wires into evm.Context, mirroring the reference engine's
// own chain.CanTransfer/chain.Transfer split between "can this balance
// move happen" and "perform it" (kept here, rather than folded into
// evm.Context directly, so an embedder can supply alternate transfer
// semantics without touching the interpreter core).
package chain

import (
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/state"
	"github.com/entropyio/go-evm/word"
)

// CanTransfer checks whether addr's balance covers amount, without
// moving anything.
func CanTransfer(s *state.State, addr common.Address, amount word.Word) bool {
	return s.CanTransfer(addr, amount)
}

// Transfer moves amount from sender to recipient, failing with
// InsufficientBalance if sender's balance does not cover it.
func Transfer(s *state.State, sender, recipient common.Address, amount word.Word) error {
	return s.Transfer(sender, recipient, amount)
}
