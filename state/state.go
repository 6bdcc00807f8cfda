// Package state implements the world-state model: a mapping of
// addresses to accounts, organized as a stack of copy-on-write layers so
// that CALL/CREATE sub-frames can be snapshotted, committed, or
// reverted atomically (SPEC_FULL.md §4.4, §9 "Shared mutable State
// across nested frames").
package state

import (
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/logger"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

var log = logger.NewLogger("[state]")

// Account is the materialized (balance, nonce, code, storage) tuple for
// one address. It is a read-only snapshot returned by GetAccount; it is
// not the storage representation itself, which is layered and sparse.
type Account struct {
	Balance word.Word
	Nonce   word.Word
	Code    []byte
	Storage map[word.Word]word.Word
}

// Provider is the read-only Fork interface State consults on a miss
// (SPEC_FULL.md §4.6). It is declared here, at the point of use, so
// that the concrete fork package can depend on state without state
// needing to depend back on fork.
type Provider interface {
	// FetchAccount resolves balance/nonce/code for addr. A nil Account
	// with a nil error means the upstream node has no such account
	// (treated as the zero account and memoized as such).
	FetchAccount(addr common.Address) (*Account, error)
	// FetchStorage resolves one storage slot. A nil Word with a nil
	// error means the slot is unset upstream (zero, memoized).
	FetchStorage(addr common.Address, key word.Word) (*word.Word, error)
}

// accountLayer holds the fields explicitly written (or fetched and
// memoized) within one layer, for one address. A field is "present" in
// a layer only if its *OK flag is true; absent fields fall through to
// lower layers on read.
type accountLayer struct {
	balance   word.Word
	balanceOK bool
	nonce     word.Word
	nonceOK   bool
	code      []byte
	codeOK    bool
	storage   map[word.Word]word.Word
}

func newAccountLayer() *accountLayer {
	return &accountLayer{storage: make(map[word.Word]word.Word)}
}

type layer struct {
	accounts map[common.Address]*accountLayer
}

func newLayer() *layer {
	return &layer{accounts: make(map[common.Address]*accountLayer)}
}

func (l *layer) account(addr common.Address, create bool) *accountLayer {
	a, ok := l.accounts[addr]
	if !ok && create {
		a = newAccountLayer()
		l.accounts[addr] = a
	}
	return a
}

// State is the layered world state. The base layer (index 0) is the
// only layer a Fork fetch ever writes into, per the read-through-cache
// design note: fetched values must be visible underneath every
// subsequent snapshot.
type State struct {
	layers []*layer
	fork   Provider
}

// New returns an empty State, optionally backed by a Fork provider.
// Pass a nil provider to disable forking (all misses resolve to zero).
func New(fork Provider) *State {
	return &State{
		layers: []*layer{newLayer()},
		fork:   fork,
	}
}

// Snapshot pushes a new copy-on-write layer and returns a handle
// identifying it, for later Commit or Revert.
func (s *State) Snapshot() int {
	s.layers = append(s.layers, newLayer())
	return len(s.layers) - 1
}

// Commit collapses every layer from the current top down to (and
// including) handle into the layer below handle, leaving state.layers
// with the merged writes visible one level down.
func (s *State) Commit(handle int) {
	for len(s.layers) > handle {
		top := s.layers[len(s.layers)-1]
		parentIdx := len(s.layers) - 2
		if parentIdx < 0 {
			s.layers = s.layers[:len(s.layers)-1]
			continue
		}
		mergeInto(s.layers[parentIdx], top)
		s.layers = s.layers[:len(s.layers)-1]
	}
}

// Revert discards every layer from the current top down to and
// including handle, so that every write performed since Snapshot
// returned handle becomes invisible.
func (s *State) Revert(handle int) {
	if handle < 0 {
		handle = 0
	}
	if handle > len(s.layers) {
		handle = len(s.layers)
	}
	s.layers = s.layers[:handle]
}

func mergeInto(dst, src *layer) {
	for addr, srcAcc := range src.accounts {
		dstAcc := dst.account(addr, true)
		if srcAcc.balanceOK {
			dstAcc.balance, dstAcc.balanceOK = srcAcc.balance, true
		}
		if srcAcc.nonceOK {
			dstAcc.nonce, dstAcc.nonceOK = srcAcc.nonce, true
		}
		if srcAcc.codeOK {
			dstAcc.code, dstAcc.codeOK = srcAcc.code, true
		}
		for k, v := range srcAcc.storage {
			dstAcc.storage[k] = v
		}
	}
}

func (s *State) top() *layer { return s.layers[len(s.layers)-1] }

// lookupBalance walks the layers top-down looking for an explicit
// balance entry; ok is false if no layer has touched this address'
// balance yet.
func (s *State) lookupBalance(addr common.Address) (word.Word, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if a, present := s.layers[i].accounts[addr]; present && a.balanceOK {
			return a.balance, true
		}
	}
	return word.Zero(), false
}

func (s *State) lookupNonce(addr common.Address) (word.Word, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if a, present := s.layers[i].accounts[addr]; present && a.nonceOK {
			return a.nonce, true
		}
	}
	return word.Zero(), false
}

func (s *State) lookupCode(addr common.Address) ([]byte, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if a, present := s.layers[i].accounts[addr]; present && a.codeOK {
			return a.code, true
		}
	}
	return nil, false
}

func (s *State) lookupStorage(addr common.Address, key word.Word) (word.Word, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if a, present := s.layers[i].accounts[addr]; present {
			if v, ok := a.storage[key]; ok {
				return v, true
			}
		}
	}
	return word.Zero(), false
}

// fetchAndMemoizeAccount consults the Fork provider (if any) and
// memoizes the result into the base layer, per the "Fork as a
// read-through cache" design note: inserted at the base so later
// snapshots see it as pre-existing and reverts never re-trigger the
// fetch. A transport error is returned rather than treated as a miss:
// per SPEC_FULL.md §7, a Fork error fails the current opcode, it does
// not silently resolve to zero.
func (s *State) fetchAndMemoizeAccount(addr common.Address) error {
	if s.fork == nil {
		return nil
	}
	acc, err := s.fork.FetchAccount(addr)
	if err != nil {
		log.Warningf("fork fetch_account(%s) failed: %v", addr.Hex(), err)
		return vmerrors.Wrap(vmerrors.KindFork, err)
	}
	base := s.layers[0].account(addr, true)
	if acc == nil {
		base.balance, base.balanceOK = word.Zero(), true
		base.nonce, base.nonceOK = word.Zero(), true
		base.code, base.codeOK = nil, true
		return nil
	}
	base.balance, base.balanceOK = acc.Balance, true
	base.nonce, base.nonceOK = acc.Nonce, true
	base.code, base.codeOK = acc.Code, true
	for k, v := range acc.Storage {
		base.storage[k] = v
	}
	return nil
}

func (s *State) fetchAndMemoizeStorage(addr common.Address, key word.Word) error {
	if s.fork == nil {
		return nil
	}
	v, err := s.fork.FetchStorage(addr, key)
	if err != nil {
		log.Warningf("fork fetch_storage(%s,%s) failed: %v", addr.Hex(), key.String(), err)
		return vmerrors.Wrap(vmerrors.KindFork, err)
	}
	base := s.layers[0].account(addr, true)
	if v == nil {
		base.storage[key] = word.Zero()
		return nil
	}
	base.storage[key] = *v
	return nil
}

// GetBalance returns addr's balance, lazily fetching from Fork on a
// total miss and silently treating a transport error as unresolved
// (zero). Callers on the opcode path that must surface a Fork error
// instead of a zero use GetBalanceErr.
func (s *State) GetBalance(addr common.Address) word.Word {
	v, _ := s.GetBalanceErr(addr)
	return v
}

// GetBalanceErr is GetBalance, but returns the Fork transport error (if
// any) instead of swallowing it into a zero value.
func (s *State) GetBalanceErr(addr common.Address) (word.Word, error) {
	if v, ok := s.lookupBalance(addr); ok {
		return v, nil
	}
	if err := s.fetchAndMemoizeAccount(addr); err != nil {
		return word.Zero(), err
	}
	v, _ := s.lookupBalance(addr)
	return v, nil
}

// GetNonce returns addr's nonce, lazily fetching from Fork on a total
// miss.
func (s *State) GetNonce(addr common.Address) word.Word {
	v, _ := s.GetNonceErr(addr)
	return v
}

// GetNonceErr is GetNonce, but surfaces the Fork transport error.
func (s *State) GetNonceErr(addr common.Address) (word.Word, error) {
	if v, ok := s.lookupNonce(addr); ok {
		return v, nil
	}
	if err := s.fetchAndMemoizeAccount(addr); err != nil {
		return word.Zero(), err
	}
	v, _ := s.lookupNonce(addr)
	return v, nil
}

// GetCode returns addr's code, lazily fetching from Fork on a total
// miss.
func (s *State) GetCode(addr common.Address) []byte {
	v, _ := s.GetCodeErr(addr)
	return v
}

// GetCodeErr is GetCode, but surfaces the Fork transport error.
func (s *State) GetCodeErr(addr common.Address) ([]byte, error) {
	if v, ok := s.lookupCode(addr); ok {
		return v, nil
	}
	if err := s.fetchAndMemoizeAccount(addr); err != nil {
		return nil, err
	}
	v, _ := s.lookupCode(addr)
	return v, nil
}

// GetStorage returns the value stored at (addr,key), lazily fetching
// from Fork on a miss.
func (s *State) GetStorage(addr common.Address, key word.Word) word.Word {
	v, _ := s.GetStorageErr(addr, key)
	return v
}

// GetStorageErr is GetStorage, but surfaces the Fork transport error.
func (s *State) GetStorageErr(addr common.Address, key word.Word) (word.Word, error) {
	if v, ok := s.lookupStorage(addr, key); ok {
		return v, nil
	}
	if err := s.fetchAndMemoizeStorage(addr, key); err != nil {
		return word.Zero(), err
	}
	v, _ := s.lookupStorage(addr, key)
	return v, nil
}

// GetAccount materializes the full (balance, nonce, code, storage)
// tuple for addr, merging storage keys visible across every layer.
// Convenience accessor; the interpreter's hot path uses the narrower
// Get*/Set* methods instead.
func (s *State) GetAccount(addr common.Address) Account {
	acc := Account{
		Balance: s.GetBalance(addr),
		Nonce:   s.GetNonce(addr),
		Code:    s.GetCode(addr),
		Storage: make(map[word.Word]word.Word),
	}
	for _, l := range s.layers {
		if a, ok := l.accounts[addr]; ok {
			for k, v := range a.storage {
				acc.Storage[k] = v
			}
		}
	}
	return acc
}

// SetBalance writes addr's balance into the top layer only.
func (s *State) SetBalance(addr common.Address, balance word.Word) {
	a := s.top().account(addr, true)
	a.balance, a.balanceOK = balance, true
}

// SetNonce writes addr's nonce into the top layer only.
func (s *State) SetNonce(addr common.Address, nonce word.Word) {
	a := s.top().account(addr, true)
	a.nonce, a.nonceOK = nonce, true
}

// SetCode writes addr's code into the top layer only.
func (s *State) SetCode(addr common.Address, code []byte) {
	a := s.top().account(addr, true)
	a.code, a.codeOK = code, true
}

// SetStorage writes (addr,key)=value into the top layer only.
func (s *State) SetStorage(addr common.Address, key, value word.Word) {
	a := s.top().account(addr, true)
	a.storage[key] = value
}

// IncrementNonce reads addr's current nonce and writes nonce+1 into the
// top layer, returning the pre-increment value (the value CREATE
// derives its address from).
func (s *State) IncrementNonce(addr common.Address) word.Word {
	n := s.GetNonce(addr)
	s.SetNonce(addr, word.Add(n, word.One()))
	return n
}

// CanTransfer reports whether addr's balance covers amount.
func (s *State) CanTransfer(addr common.Address, amount word.Word) bool {
	return s.GetBalance(addr).Cmp(amount) >= 0
}

// Transfer atomically moves amount from sender to recipient within the
// top layer, failing with InsufficientBalance (and no state change) if
// sender's balance is insufficient.
func (s *State) Transfer(sender, recipient common.Address, amount word.Word) error {
	if !s.CanTransfer(sender, amount) {
		return vmerrors.ErrInsufficientBalance
	}
	if amount.IsZero() {
		return nil
	}
	s.SetBalance(sender, word.Sub(s.GetBalance(sender), amount))
	s.SetBalance(recipient, word.Add(s.GetBalance(recipient), amount))
	return nil
}
