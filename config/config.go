// Package config carries the interpreter's tunable constants and the
// block-context defaults environment opcodes fall back to when no fork
// is attached. It descends from the reference engine's ChainConfig, with
// the consensus/fork-schedule machinery stripped out: this emulator
// models neither consensus nor hard-fork activation blocks, only a
// single flat rule set per run.
package config

import (
	"math/big"

	"github.com/entropyio/go-evm/common"
)

const (
	// StackLimit is the maximum number of words the Stack may hold.
	StackLimit = 1024

	// CallDepthLimit is the maximum nesting depth of CALL/CREATE frames.
	CallDepthLimit = 1024

	// WordSize is the width in bytes of a Word and a Memory granule.
	WordSize = 32

	// DefaultChainID is used for CHAINID when no fork and no explicit
	// override is configured.
	DefaultChainID = 1

	// DefaultForkTimeout bounds every outbound call made by the fork
	// provider's JSON-RPC client.
	DefaultForkTimeout = 10 // seconds
)

// ChainConfig is the small, flat rule set this emulator runs under: no
// fork-activation blocks, no consensus engine selection, just the values
// the environment opcodes need when nothing overrides them.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"`
}

// DefaultChainConfig is used whenever the embedder does not supply one.
var DefaultChainConfig = &ChainConfig{ChainID: big.NewInt(DefaultChainID)}

// BlockContext carries the block-level values consumed by COINBASE,
// TIMESTAMP, NUMBER, PREVRANDAO, GASLIMIT, BASEFEE, CHAINID and
// BLOCKHASH. It is populated either from these defaults or, when a fork
// is attached, from the fork provider's fetch_block_context (§4.6);
// per the resolved Open Question in SPEC_FULL.md §9, a request for any
// of these values is always answered — with a default or a fetched
// value — and never turned into an interpreter error.
type BlockContext struct {
	Number     *big.Int
	Timestamp  *big.Int
	Coinbase   common.Address
	BaseFee    *big.Int
	ChainID    *big.Int
	PrevRandao common.Hash
	GasLimit   uint64

	// GetHash resolves BLOCKHASH(n); the default returns the zero hash
	// for every block number, matching the reference engine's own
	// placeholder GetHash (runtime/env.go).
	GetHash func(blockNumber uint64) common.Hash
}

// DefaultBlockContext is the zero-valued block context used when neither
// a fork nor an explicit override supplies one.
func DefaultBlockContext() *BlockContext {
	return &BlockContext{
		Number:    new(big.Int),
		Timestamp: new(big.Int),
		Coinbase:  common.Address{},
		BaseFee:   new(big.Int),
		ChainID:   big.NewInt(DefaultChainID),
		GasLimit:  0,
		GetHash: func(uint64) common.Hash {
			return common.Hash{}
		},
	}
}
