// Package common holds the fixed-size value types shared by every layer of
// the emulator: 20-byte addresses and 32-byte hashes/words, plus the hex
// conversion helpers used at every external boundary (CLI flags, JSON-RPC
// payloads, test fixtures).
package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// Hash represents the 32-byte Keccak256 hash of arbitrary data, and is also
// used to carry raw 256-bit words at external boundaries (storage keys,
// call values) where a fixed-size big-endian encoding is required.
type Hash [HashLength]byte

// BytesToAddress sets the address to the value of b, left-padding or
// truncating from the left as necessary.
func BytesToAddress(b []byte) Address {
	var a Address
	copyRightAligned(a[:], b)
	return a
}

// HexToAddress returns Address with byte values of s.
func HexToAddress(s string) Address { return BytesToAddress(Hex2Bytes(s)) }

func (a Address) Bytes() []byte { return a[:] }
func (a Address) Hex() string   { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// BytesToHash sets the hash to the value of b, left-padding or truncating
// from the left as necessary.
func BytesToHash(b []byte) Hash {
	var h Hash
	copyRightAligned(h[:], b)
	return h
}

// HexToHash returns Hash with byte values of s.
func HexToHash(s string) Hash { return BytesToHash(Hex2Bytes(s)) }

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) Hex() string    { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }
func (h Hash) IsZero() bool   { return h == Hash{} }

// copyRightAligned copies src into the tail of dst, so that shorter byte
// slices behave like big-endian integers zero-padded on the left.
func copyRightAligned(dst, src []byte) {
	if len(src) > len(dst) {
		src = src[len(src)-len(dst):]
	}
	copy(dst[len(dst)-len(src):], src)
}

// Hex2Bytes decodes a hex string that may or may not carry a "0x" prefix.
// An odd-length string is left-padded with a zero nibble, matching the
// behavior callers expect from CLI flag parsing.
func Hex2Bytes(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		// Mirrors the behavior expected by callers that have already
		// validated their input (test fixtures, constant bytecode):
		// a malformed literal is a programmer error, not a runtime one.
		panic(fmt.Sprintf("common: invalid hex string %q: %v", s, err))
	}
	return b
}

// Bytes2Hex encodes b as a "0x"-prefixed hex string.
func Bytes2Hex(b []byte) string { return "0x" + hex.EncodeToString(b) }
