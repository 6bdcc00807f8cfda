package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

func addr(s string) common.Address { return common.HexToAddress(s) }

func TestUnknownAddressIsZeroAccount(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	assert.True(t, s.GetBalance(a).IsZero())
	assert.True(t, s.GetNonce(a).IsZero())
	assert.Empty(t, s.GetCode(a))
}

func TestSetThenGet(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	s.SetBalance(a, word.FromUint64(100))
	assert.Equal(t, word.FromUint64(100), s.GetBalance(a))
}

func TestSstoreSloadSameFrame(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	k, v := word.FromUint64(1), word.FromUint64(42)
	s.SetStorage(a, k, v)
	assert.Equal(t, v, s.GetStorage(a, k))
}

func TestRevertDiscardsWrites(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	k := word.FromUint64(1)
	s.SetStorage(a, k, word.FromUint64(7))

	handle := s.Snapshot()
	s.SetStorage(a, k, word.FromUint64(99))
	assert.Equal(t, word.FromUint64(99), s.GetStorage(a, k))

	s.Revert(handle)
	assert.Equal(t, word.FromUint64(7), s.GetStorage(a, k))
}

func TestCommitKeepsWrites(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	k := word.FromUint64(1)

	handle := s.Snapshot()
	s.SetStorage(a, k, word.FromUint64(99))
	s.Commit(handle)

	assert.Equal(t, word.FromUint64(99), s.GetStorage(a, k))
}

func TestNestedSnapshotsRevertToOuterHandle(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	k := word.FromUint64(1)
	s.SetStorage(a, k, word.FromUint64(1))

	outer := s.Snapshot()
	s.SetStorage(a, k, word.FromUint64(2))
	inner := s.Snapshot()
	s.SetStorage(a, k, word.FromUint64(3))
	_ = inner

	s.Revert(outer)
	assert.Equal(t, word.FromUint64(1), s.GetStorage(a, k))
}

func TestTransferMovesBalance(t *testing.T) {
	s := New(nil)
	from := addr("0x0000000000000000000000000000000000000001")
	to := addr("0x0000000000000000000000000000000000000002")
	s.SetBalance(from, word.FromUint64(100))

	require.NoError(t, s.Transfer(from, to, word.FromUint64(30)))
	assert.Equal(t, word.FromUint64(70), s.GetBalance(from))
	assert.Equal(t, word.FromUint64(30), s.GetBalance(to))
}

func TestTransferInsufficientBalanceFails(t *testing.T) {
	s := New(nil)
	from := addr("0x0000000000000000000000000000000000000001")
	to := addr("0x0000000000000000000000000000000000000002")
	s.SetBalance(from, word.FromUint64(5))

	err := s.Transfer(from, to, word.FromUint64(30))
	assert.Error(t, err)
	assert.Equal(t, word.FromUint64(5), s.GetBalance(from))
	assert.True(t, s.GetBalance(to).IsZero())
}

func TestIncrementNonceReturnsPreIncrementValue(t *testing.T) {
	s := New(nil)
	a := addr("0x0000000000000000000000000000000000000001")
	first := s.IncrementNonce(a)
	assert.True(t, first.IsZero())
	assert.Equal(t, word.FromUint64(1), s.GetNonce(a))
}

type fakeProvider struct {
	accounts map[common.Address]*Account
	storage  map[common.Address]map[word.Word]word.Word
	calls    int
}

func (f *fakeProvider) FetchAccount(a common.Address) (*Account, error) {
	f.calls++
	return f.accounts[a], nil
}

func (f *fakeProvider) FetchStorage(a common.Address, key word.Word) (*word.Word, error) {
	f.calls++
	if m, ok := f.storage[a]; ok {
		if v, ok := m[key]; ok {
			return &v, nil
		}
	}
	return nil, nil
}

func TestForkMissMemoizesIntoBaseLayer(t *testing.T) {
	a := addr("0x0000000000000000000000000000000000000001")
	fp := &fakeProvider{
		accounts: map[common.Address]*Account{
			a: {Balance: word.FromUint64(1000), Nonce: word.Zero(), Storage: map[word.Word]word.Word{}},
		},
	}
	s := New(fp)

	got := s.GetBalance(a)
	assert.Equal(t, word.FromUint64(1000), got)
	assert.Equal(t, 1, fp.calls)

	// Second read must not hit the provider again.
	_ = s.GetBalance(a)
	assert.Equal(t, 1, fp.calls)
}

type erroringProvider struct {
	err error
}

func (f *erroringProvider) FetchAccount(common.Address) (*Account, error) {
	return nil, f.err
}

func (f *erroringProvider) FetchStorage(common.Address, word.Word) (*word.Word, error) {
	return nil, f.err
}

func TestGetBalanceErrSurfacesForkTransportError(t *testing.T) {
	a := addr("0x0000000000000000000000000000000000000001")
	transportErr := errors.New("dial tcp: connection refused")
	s := New(&erroringProvider{err: transportErr})

	v, err := s.GetBalanceErr(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, vmerrors.ErrFork)
	assert.ErrorIs(t, err, transportErr)
	assert.True(t, v.IsZero())

	// The plain (non-Err) accessor still resolves to zero rather than
	// panicking or exposing the error, for callers that don't opt in.
	assert.True(t, s.GetBalance(a).IsZero())
}

func TestGetCodeErrSurfacesForkTransportError(t *testing.T) {
	a := addr("0x0000000000000000000000000000000000000002")
	transportErr := errors.New("timeout")
	s := New(&erroringProvider{err: transportErr})

	code, err := s.GetCodeErr(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, vmerrors.ErrFork)
	assert.Nil(t, code)
}

func TestGetStorageErrSurfacesForkTransportError(t *testing.T) {
	a := addr("0x0000000000000000000000000000000000000003")
	transportErr := errors.New("timeout")
	s := New(&erroringProvider{err: transportErr})

	v, err := s.GetStorageErr(a, word.FromUint64(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, vmerrors.ErrFork)
	assert.True(t, v.IsZero())
}

func TestFetchErrorIsNotMemoized(t *testing.T) {
	a := addr("0x0000000000000000000000000000000000000004")
	fp := &erroringProvider{err: errors.New("transient")}
	s := New(fp)

	_, err := s.GetBalanceErr(a)
	require.Error(t, err)

	// A failed fetch must not poison the base layer with a false zero:
	// a later successful fetch should still be able to resolve it.
	fp.err = nil
	v, err := s.GetBalanceErr(a)
	require.NoError(t, err)
	assert.True(t, v.IsZero()) // erroringProvider always returns a nil account, i.e. zero
}

func TestForkFetchSurvivesRevert(t *testing.T) {
	a := addr("0x0000000000000000000000000000000000000001")
	fp := &fakeProvider{
		accounts: map[common.Address]*Account{
			a: {Balance: word.FromUint64(500), Storage: map[word.Word]word.Word{}},
		},
	}
	s := New(fp)

	handle := s.Snapshot()
	_ = s.GetBalance(a) // triggers fetch, memoized at the base layer
	s.Revert(handle)

	assert.Equal(t, word.FromUint64(500), s.GetBalance(a))
	assert.Equal(t, 1, fp.calls)
}
