package cpu

import (
	"iter"
)

// Opcode is the assembled output of a single source line.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      int      // Load address of the first byte of Data.
	Words     []string // Source words, after equate and macro expansion.
	Data      []byte   // Assembled bytes.
	LinkLabel string   // Label whose address is merged into the nnn field.
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates an address within a program listing.
type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the Opcode.
}

// Debug returns the opcode that assembled the byte at pc.
// The Opcode is nil if pc is not part of the program.
func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(pc) >= op.Addr && int(pc) < op.Addr+len(op.Data) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the program image, to be loaded at ORIGIN.
func (prog *Program) Binary() (bin []byte) {
	for addr, value := range prog.Bytes() {
		offset := int(addr) - ORIGIN
		if offset < 0 {
			continue
		}
		for len(bin) <= offset {
			bin = append(bin, 0)
		}
		bin[offset] = value
	}

	return
}

// Bytes iterates over the assembled bytes and their addresses.
func (prog *Program) Bytes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, value byte) bool) {
		for _, op := range prog.Opcodes {
			for n, value := range op.Data {
				if !yield(uint16(op.Addr+n), value) {
					return
				}
			}
		}
	}
}
