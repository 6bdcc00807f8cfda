package evm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entropyio/go-evm/chain"
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/state"
	"github.com/entropyio/go-evm/vmerrors"
	"github.com/entropyio/go-evm/word"
)

func testContext() Context {
	return Context{
		CanTransfer: chain.CanTransfer,
		Transfer:    chain.Transfer,
		Block:       config.DefaultBlockContext(),
		ChainConfig: config.DefaultChainConfig,
	}
}

func run(t *testing.T, code []byte) *Runner {
	t.Helper()
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	ctx := CallContext{
		Address: common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
		Caller:  common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
	}
	r := NewRunner(e, ctx, code)
	r.Run()
	return r
}

// Scenario 1.
func TestScenario1_AddStop(t *testing.T) {
	code := common.Hex2Bytes("60016002" + "01" + "00") // PUSH1 1 PUSH1 2 ADD STOP
	r := run(t, code)
	require.True(t, r.Success())
	top, err := r.Stack().Peek(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), top.Uint64())
	assert.Empty(t, r.Output())
}

// Scenario 2. mstore(0, 0x20) then return(0, 0x20): the 32-byte word
// stored is the big-endian encoding of 32 itself (31 zero bytes
// followed by 0x20), and that single word is the only memory touched.
func TestScenario2_MstoreReturn(t *testing.T) {
	code := common.Hex2Bytes("6020" + "6000" + "52" + "6020" + "6000" + "f3")
	r := run(t, code)
	require.True(t, r.Success())
	want := make([]byte, 32)
	want[31] = 0x20
	assert.Equal(t, want, r.Output())
	assert.Equal(t, 32, r.Memory().Size())
}

// Scenario 3.
func TestScenario3_ImplicitStop(t *testing.T) {
	code := common.Hex2Bytes("60ff" + "60ff")
	r := run(t, code)
	require.True(t, r.Success())
	assert.Equal(t, 2, r.Stack().Len())
	top, _ := r.Stack().Peek(0)
	second, _ := r.Stack().Peek(1)
	assert.Equal(t, uint64(0xff), top.Uint64())
	assert.Equal(t, uint64(0xff), second.Uint64())
}

// Scenario 4. revert(offset=0, length=1) over untouched memory: halts
// as a revert with a single zero byte of output (length 1, not 0 —
// the size operand is 1).
func TestScenario4_Revert(t *testing.T) {
	code := common.Hex2Bytes("6001" + "6000" + "fd")
	r := run(t, code)
	assert.False(t, r.Success())
	assert.Equal(t, HaltRevert, r.halt)
	assert.Equal(t, []byte{0}, r.Output())
}

// Scenario 5. The parent reaches the SSTORE through STATICCALL, so the
// child halts on StaticViolation and the parent's STATICCALL pushes 0.
func TestScenario5_StaticViolation(t *testing.T) {
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	target := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	code := common.Hex2Bytes("6001" + "6000" + "55") // PUSH1 1 PUSH1 0 SSTORE
	st.SetCode(target, code)

	// retLength, retOffset, argsLength, argsOffset = 0, then PUSH20
	// target, gas=0, STATICCALL, STOP.
	var outerCode []byte
	for i := 0; i < 4; i++ {
		outerCode = append(outerCode, byte(PUSH1), 0x00)
	}
	outerCode = append(outerCode, byte(PUSH20))
	outerCode = append(outerCode, target.Bytes()...)
	outerCode = append(outerCode, byte(PUSH1), 0x00, byte(STATICCALL), byte(STOP))
	ctx := CallContext{Address: common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")}
	r := NewRunner(e, ctx, outerCode)
	r.Run()

	require.True(t, r.Success())
	top, err := r.Stack().Peek(0)
	require.NoError(t, err)
	assert.True(t, top.IsZero())
	assert.True(t, st.GetStorage(target, word.Zero()).IsZero())
}

func TestScenario5_StaticContextRejectsSstore(t *testing.T) {
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	code := common.Hex2Bytes("6001" + "6000" + "55")
	ctx := CallContext{
		Address:  common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
		IsStatic: true,
	}
	r := NewRunner(e, ctx, code)
	r.Run()
	assert.False(t, r.Success())
	assert.Equal(t, HaltError, r.halt)
	assert.ErrorContains(t, r.Err(), "StaticViolation")
}

// Scenario 6.
func TestScenario6_InvalidOpcode(t *testing.T) {
	code := common.Hex2Bytes("fe")
	r := run(t, code)
	assert.False(t, r.Success())
	assert.Equal(t, HaltInvalid, r.halt)
}

func TestJumpIntoPushDataIsInvalidJump(t *testing.T) {
	// PUSH2 with immediate data 0x5b00 — the first immediate byte 0x5b
	// is JUMPDEST's opcode value, but it sits inside PUSH2's data, not
	// at an instruction boundary, so the precomputed bitmap must not
	// mark it valid. PUSH1 1; JUMP targets offset 1, that byte.
	code := common.Hex2Bytes("61" + "5b00" + "6001" + "56")
	r := run(t, code)
	assert.False(t, r.Success())
	assert.ErrorContains(t, r.Err(), "InvalidJump")
}

func TestPush32AtEndOfBytecodeZeroPads(t *testing.T) {
	// PUSH32 followed by only 2 bytes of immediate data.
	code := common.Hex2Bytes("7f" + "ffff")
	r := run(t, code)
	require.True(t, r.Success())
	top, err := r.Stack().Peek(0)
	require.NoError(t, err)
	b := top.Bytes32()
	assert.Equal(t, byte(0xff), b[0])
	assert.Equal(t, byte(0xff), b[1])
	assert.Equal(t, byte(0x00), b[2])
}

func TestCallRevertRollsBackStorageInParentView(t *testing.T) {
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	caller := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	target := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	st.SetStorage(target, word.Zero(), word.FromUint64(42))
	code := common.Hex2Bytes("6001" + "6000" + "55" + "6000" + "6000" + "fd")
	st.SetCode(target, code)

	ret, success, err := e.Call(caller, target, nil, word.Zero())
	require.NoError(t, err)
	assert.False(t, success)
	assert.Empty(t, ret)
	assert.Equal(t, uint64(42), st.GetStorage(target, word.Zero()).Uint64())
}

func TestCreateDerivesAddressAndInstallsCode(t *testing.T) {
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	caller := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	st.SetBalance(caller, word.FromUint64(1000))

	initCode := common.Hex2Bytes("6001600055" + "6000" + "6000" + "f3") // SSTORE then RETURN empty
	_, addr, success, err := e.Create(caller, initCode, word.Zero())
	require.NoError(t, err)
	require.True(t, success)
	assert.NotEqual(t, common.Address{}, addr)
	assert.Equal(t, uint64(1), st.GetNonce(caller).Uint64())
}

// erroringProvider always fails the fetch, mirroring a JSON-RPC
// transport error from a fork attachment.
type erroringProvider struct{ err error }

func (p *erroringProvider) FetchAccount(common.Address) (*state.Account, error) {
	return nil, p.err
}

func (p *erroringProvider) FetchStorage(common.Address, word.Word) (*word.Word, error) {
	return nil, p.err
}

func TestBalanceFailsTheOpcodeOnForkError(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")
	st := state.New(&erroringProvider{err: transportErr})
	e := NewEVM(testContext(), st)

	target := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	// PUSH20 <target> BALANCE
	code := append([]byte{byte(PUSH20)}, target.Bytes()...)
	code = append(code, byte(BALANCE))
	ctx := CallContext{Address: common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")}
	r := NewRunner(e, ctx, code)
	r.Run()

	assert.False(t, r.Success())
	assert.Equal(t, HaltError, r.halt)
	assert.ErrorIs(t, r.Err(), vmerrors.ErrFork)
}

// A Fork error inside a nested CALL must not be swallowed into an
// ordinary 0 push: it climbs through the calling frame too, all the
// way to the top-level Call.
func TestForkErrorInNestedCallPropagatesToTopLevel(t *testing.T) {
	transportErr := errors.New("timeout")
	st := state.New(&erroringProvider{err: transportErr})
	e := NewEVM(testContext(), st)

	caller := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	outer := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	callee := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")

	// outer's code: retLength=0 retOffset=0 argsLength=0 argsOffset=0
	// value=0, then PUSH20 callee, gas=0, CALL, STOP. Pushed in reverse
	// pop order since the stack is LIFO.
	var outerCode []byte
	for i := 0; i < 5; i++ {
		outerCode = append(outerCode, byte(PUSH1), 0x00)
	}
	outerCode = append(outerCode, byte(PUSH20))
	outerCode = append(outerCode, callee.Bytes()...)
	outerCode = append(outerCode, byte(PUSH1), 0x00, byte(CALL), byte(STOP))
	st.SetCode(outer, outerCode)
	// callee's code reads its own BALANCE, which forces a Fork fetch
	// that errors (callee itself was never explicitly given a balance,
	// so State has to consult the erroring provider).
	st.SetCode(callee, []byte{byte(ADDRESS), byte(BALANCE), byte(STOP)})

	_, success, err := e.Call(caller, outer, nil, word.Zero())
	require.Error(t, err)
	assert.False(t, success)
	assert.ErrorIs(t, err, vmerrors.ErrFork)
}

func TestCallCodeTransfersValueSelfToSelfAndEnforcesBalance(t *testing.T) {
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	caller := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	callee := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	st.SetBalance(caller, word.FromUint64(5))
	st.SetCode(callee, []byte{byte(STOP)})

	// CALLCODE callee with value=10 (greater than caller's balance of 5)
	// must fail (push 0) rather than transfer an amount the caller
	// doesn't have.
	var code []byte
	for i := 0; i < 4; i++ {
		code = append(code, byte(PUSH1), 0x00) // retLength, retOffset, argsLength, argsOffset
	}
	code = append(code, byte(PUSH1), 0x0a) // value = 10
	code = append(code, byte(PUSH20))
	code = append(code, callee.Bytes()...)
	code = append(code, byte(PUSH1), 0x00, byte(CALLCODE), byte(STOP))
	ctx := CallContext{Address: caller, Caller: caller}
	r := NewRunner(e, ctx, code)
	r.Run()

	require.True(t, r.Success())
	top, err := r.Stack().Peek(0)
	require.NoError(t, err)
	assert.True(t, top.IsZero())
	assert.ErrorIs(t, r.Err(), vmerrors.ErrInsufficientBalance)
	// Balance must be untouched: the failed CALLCODE must not partially
	// debit the caller.
	assert.Equal(t, uint64(5), st.GetBalance(caller).Uint64())
}

func TestCallDepthExceededIsObservableViaErr(t *testing.T) {
	st := state.New(nil)
	e := NewEVM(testContext(), st)
	ctx := CallContext{
		Address: common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
		Depth:   config.CallDepthLimit - 1,
	}
	callee := common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	var code []byte
	for i := 0; i < 5; i++ {
		code = append(code, byte(PUSH1), 0x00) // retLength, retOffset, argsLength, argsOffset, value
	}
	code = append(code, byte(PUSH20))
	code = append(code, callee.Bytes()...)
	code = append(code, byte(PUSH1), 0x00, byte(CALL), byte(STOP))
	r := NewRunner(e, ctx, code)
	r.Run()

	require.True(t, r.Success())
	top, err := r.Stack().Peek(0)
	require.NoError(t, err)
	assert.True(t, top.IsZero())
	assert.ErrorIs(t, r.Err(), vmerrors.ErrCallDepthExceeded)
}

func TestStackDepthNeverExceedsLimit(t *testing.T) {
	code := make([]byte, 0, (config.StackLimit+5)*2)
	for i := 0; i < config.StackLimit+5; i++ {
		code = append(code, byte(PUSH1), 0x01)
	}
	r := run(t, code)
	assert.False(t, r.Success())
	assert.ErrorContains(t, r.Err(), "StackOverflow")
	assert.LessOrEqual(t, r.Stack().Len(), config.StackLimit)
}
