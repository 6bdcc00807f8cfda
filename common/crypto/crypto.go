// Package crypto provides the handful of hashing and address-derivation
// primitives the interpreter needs: Keccak256 (the SHA3 opcode and every
// address derivation) and the CREATE/CREATE2 address formulas.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/entropyio/go-evm/common"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	w := sha3.NewLegacyKeccak256()
	for _, b := range data {
		w.Write(b)
	}
	return w.Sum(nil)
}

// Keccak256Hash is Keccak256 wrapped in a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// rlpUint encodes n the way RLP encodes a non-negative integer: the empty
// string for 0, a single byte for n < 128, and a length-prefixed big-endian
// byte string otherwise. CREATE address derivation only ever needs to RLP
// encode a two-element list of (address, nonce), so this is not a general
// RLP encoder — it exists purely to feed CreateAddress below.
func rlpUint(n uint64) []byte {
	if n == 0 {
		return []byte{0x80}
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte(n)}, b...)
		n >>= 8
	}
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append([]byte{0x80 + byte(len(b))}, b...)
}

// CreateAddress derives the address of a contract created via CREATE:
// keccak256(rlp([sender, nonce]))[12:].
func CreateAddress(sender common.Address, nonce uint64) common.Address {
	nonceRLP := rlpUint(nonce)
	payload := append(append([]byte{}, 0x94), sender[:]...)
	payload = append(payload, nonceRLP...)

	listLen := len(payload)
	var header []byte
	if listLen < 56 {
		header = []byte{0xc0 + byte(listLen)}
	} else {
		lenBytes := rlpUint(uint64(listLen))[1:]
		header = append([]byte{0xf7 + byte(len(lenBytes))}, lenBytes...)
	}

	hash := Keccak256(append(header, payload...))
	return common.BytesToAddress(hash[12:])
}

// CreateAddress2 derives the address of a contract created via CREATE2:
// keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:].
func CreateAddress2(sender common.Address, salt common.Hash, initCodeHash []byte) common.Address {
	input := make([]byte, 0, 1+20+32+32)
	input = append(input, 0xff)
	input = append(input, sender[:]...)
	input = append(input, salt[:]...)
	input = append(input, initCodeHash...)
	return common.BytesToAddress(Keccak256(input)[12:])
}
