// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the flat, byte addressed store of the CHIP-8
// machine.
package memory

import (
	"errors"
)

const (
	MEMORY_SIZE = 0x1000 // Number of addressable cells.
)

// Memory is a zero-filled array of MEMORY_SIZE bytes.
type Memory struct {
	Data [MEMORY_SIZE]byte
}

// NewMemory creates a new, zero-filled memory.
func NewMemory() (mem *Memory) {
	mem = &Memory{}
	return
}

// Reset zero-fills the memory.
func (mem *Memory) Reset() {
	clear(mem.Data[:])
}

// span validates the n cells starting at addr.
// An empty span is always valid. The error names the first bad cell.
func span(addr uint16, n int) (err error) {
	if n <= 0 {
		return
	}
	if int(addr)+n > MEMORY_SIZE {
		err = errors.Join(ErrAddress(max(int(addr), MEMORY_SIZE)), ErrOutOfBounds)
	}
	return
}

// Peek reads the byte at addr.
func (mem *Memory) Peek(addr uint16) (value byte, err error) {
	err = span(addr, 1)
	if err != nil {
		return
	}

	value = mem.Data[addr]
	return
}

// Poke writes the byte at addr.
func (mem *Memory) Poke(addr uint16, value byte) (err error) {
	err = span(addr, 1)
	if err != nil {
		return
	}

	mem.Data[addr] = value
	return
}

// PeekWord reads the big-endian word at [addr, addr+1].
func (mem *Memory) PeekWord(addr uint16) (word uint16, err error) {
	err = span(addr, 2)
	if err != nil {
		return
	}

	word = (uint16(mem.Data[addr]) << 8) | uint16(mem.Data[addr+1])
	return
}

// Slice returns a copy of the n bytes starting at addr.
// Nothing is returned unless all n bytes are addressable.
func (mem *Memory) Slice(addr uint16, n int) (data []byte, err error) {
	err = span(addr, n)
	if err != nil || n <= 0 {
		return
	}

	data = make([]byte, n)
	copy(data, mem.Data[addr:])
	return
}

// Load copies data into memory starting at origin.
// Memory is unmodified unless all of data fits.
func (mem *Memory) Load(origin uint16, data []byte) (err error) {
	err = span(origin, len(data))
	if err != nil || len(data) == 0 {
		return
	}

	copy(mem.Data[origin:], data)
	return
}
