// Package memory implements the Runner's per-frame, byte-addressed
// linear memory: an expandable buffer that grows in 32-byte words on
// demand, with zero-padded reads past the current length.
package memory

import "github.com/entropyio/go-evm/word"

const wordSize = 32

// Memory is one frame's linear byte buffer. The zero value is ready to
// use (an empty buffer).
type Memory struct {
	store []byte
}

// New returns an empty Memory.
func New() *Memory { return &Memory{} }

// Size returns the current length, always a multiple of 32.
func (m *Memory) Size() int { return len(m.store) }

// growTo grows the buffer so it has at least n bytes, rounding n up to
// the next multiple of 32. A no-op if already large enough.
func (m *Memory) growTo(n int) {
	if n <= len(m.store) {
		return
	}
	rounded := ((n + wordSize - 1) / wordSize) * wordSize
	grown := make([]byte, rounded)
	copy(grown, m.store)
	m.store = grown
}

// Load32 reads the 32-byte word at offset, growing memory as needed.
func (m *Memory) Load32(offset int) word.Word {
	m.growTo(offset + wordSize)
	var b [32]byte
	copy(b[:], m.store[offset:offset+wordSize])
	return word.FromBytes32(b)
}

// Store32 writes w as 32 big-endian bytes at offset, growing memory as
// needed.
func (m *Memory) Store32(offset int, w word.Word) {
	m.growTo(offset + wordSize)
	b := w.Bytes32()
	copy(m.store[offset:offset+wordSize], b[:])
}

// Store1 writes a single byte at offset, growing memory as needed.
func (m *Memory) Store1(offset int, b byte) {
	m.growTo(offset + 1)
	m.store[offset] = b
}

// Read returns length bytes starting at offset, zero-padded if the
// requested range extends past the current content. A zero-length read
// never grows memory, matching SPEC_FULL.md §4.2.
func (m *Memory) Read(offset, length int) []byte {
	if length == 0 {
		return []byte{}
	}
	out := make([]byte, length)
	if offset < len(m.store) {
		n := copy(out, m.store[offset:])
		_ = n
	}
	return out
}

// ReadGrowing is like Read but grows the underlying buffer to cover the
// touched range first, so that a subsequent Size() reflects the touch
// (used by the opcodes that read a memory range, e.g. RETURN, REVERT,
// SHA3, LOG*, and the CALL/CREATE input reads — even though logically a
// read, the EVM memory-expansion rule treats any touch as growth).
func (m *Memory) ReadGrowing(offset, length int) []byte {
	if length == 0 {
		return []byte{}
	}
	m.growTo(offset + length)
	out := make([]byte, length)
	copy(out, m.store[offset:offset+length])
	return out
}

// Write copies data into memory starting at offset, growing as needed.
func (m *Memory) Write(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	m.growTo(offset + len(data))
	copy(m.store[offset:offset+len(data)], data)
}

// Bytes returns the raw underlying buffer. Callers must not retain it
// across further mutation.
func (m *Memory) Bytes() []byte { return m.store }
