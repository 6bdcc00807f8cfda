package evm

import (
	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/word"
)

// addressFromWord extracts the low 20 bytes of a Word the way the
// reference engine's stack-to-address conversions do (BALANCE,
// EXTCODESIZE, EXTCODECOPY, EXTCODEHASH, CALL family all push/pop
// addresses as full Words with the upper 12 bytes conventionally
// zero).
func addressFromWord(w word.Word) common.Address {
	b := w.Bytes32()
	return common.BytesToAddress(b[12:])
}
