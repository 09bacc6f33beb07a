package cpu

import (
	"fmt"
)

// CodeClass is the opcode class, the top nibble of an instruction word.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	OP_SYS  = CodeClass(0x0) // sys
	OP_JP   = CodeClass(0x1) // jp
	OP_CALL = CodeClass(0x2) // call
	OP_SE   = CodeClass(0x3) // se
	OP_SNE  = CodeClass(0x4) // sne
	OP_SER  = CodeClass(0x5) // ser
	OP_LD   = CodeClass(0x6) // ld
	OP_ADD  = CodeClass(0x7) // add
	OP_ALU  = CodeClass(0x8) // alu
	OP_SNER = CodeClass(0x9) // sner
	OP_LDI  = CodeClass(0xa) // ldi
	OP_JPV  = CodeClass(0xb) // jpv
	OP_RND  = CodeClass(0xc) // rnd
	OP_DRW  = CodeClass(0xd) // drw
	OP_SKP  = CodeClass(0xe) // skp
	OP_MISC = CodeClass(0xf) // misc
)

// Sub-opcodes of the OP_ALU (n) and OP_MISC (nn) classes.
const (
	ALU_OP_LD     = 0x0  // 8xy0: vx = vy
	MISC_OP_ADD_I = 0x1e // fx1e: i += vx
)

// Code is a single, big-endian, instruction word.
type Code uint16

// Instruction is the decoded view of a Code.
//
//	| class | x | y | n |
//	| class |    nnn    |
//	| class | x |  nn   |
type Instruction struct {
	Code  Code
	Class CodeClass
	Nnn   uint16 // Address field.
	Nn    uint8  // Immediate byte.
	N     uint8  // Immediate nibble.
	X     uint8  // Register index, bits 8-11.
	Y     uint8  // Register index, bits 4-7.
}

// Decode decodes the instruction word made of the bytes hi and lo.
func Decode(hi, lo byte) Instruction {
	return (Code(hi)<<8 | Code(lo)).Decode()
}

// Decode splits the code into its operand fields.
func (code Code) Decode() (ins Instruction) {
	word := uint16(code)
	ins = Instruction{
		Code:  code,
		Class: CodeClass((word >> 12) & 0xf),
		Nnn:   word & 0x0fff,
		Nn:    uint8(word & 0x00ff),
		N:     uint8(word & 0x000f),
		X:     uint8((word >> 8) & 0xf),
		Y:     uint8((word >> 4) & 0xf),
	}
	return
}

// Class returns the opcode class of the instruction word.
func (code Code) Class() CodeClass {
	return CodeClass((uint16(code) >> 12) & 0xf)
}

// Bytes returns the big-endian encoding of the code.
func (code Code) Bytes() []byte {
	return []byte{byte(code >> 8), byte(code)}
}

// Implemented returns true if the code is executable by the Cpu.
func (code Code) Implemented() bool {
	ins := code.Decode()
	switch ins.Class {
	case OP_JP, OP_CALL, OP_SE, OP_LD, OP_ADD, OP_LDI, OP_DRW:
		return true
	case OP_ALU:
		return ins.N == ALU_OP_LD
	case OP_MISC:
		return ins.Nn == MISC_OP_ADD_I
	}
	return false
}

func makeCodeNnn(class CodeClass, nnn uint16) Code {
	return Code((uint16(class) << 12) | (nnn & 0x0fff))
}

func makeCodeXnn(class CodeClass, x uint8, nn uint8) Code {
	return Code((uint16(class) << 12) | (uint16(x&0xf) << 8) | uint16(nn))
}

func makeCodeXyn(class CodeClass, x, y, n uint8) Code {
	return Code((uint16(class) << 12) | (uint16(x&0xf) << 8) | (uint16(y&0xf) << 4) | uint16(n&0xf))
}

// MakeCodeJp creates a jump to addr.
func MakeCodeJp(addr uint16) Code {
	return makeCodeNnn(OP_JP, addr)
}

// MakeCodeCall creates a subroutine call to addr.
func MakeCodeCall(addr uint16) Code {
	return makeCodeNnn(OP_CALL, addr)
}

// MakeCodeSe creates a skip-if-vx-equals-nn instruction.
func MakeCodeSe(x uint8, nn uint8) Code {
	return makeCodeXnn(OP_SE, x, nn)
}

// MakeCodeLd creates a load of nn into vx.
func MakeCodeLd(x uint8, nn uint8) Code {
	return makeCodeXnn(OP_LD, x, nn)
}

// MakeCodeAdd creates a wrapping add of nn to vx.
func MakeCodeAdd(x uint8, nn uint8) Code {
	return makeCodeXnn(OP_ADD, x, nn)
}

// MakeCodeLdReg creates a copy of vy into vx.
func MakeCodeLdReg(x, y uint8) Code {
	return makeCodeXyn(OP_ALU, x, y, ALU_OP_LD)
}

// MakeCodeLdI creates a load of addr into the index register.
func MakeCodeLdI(addr uint16) Code {
	return makeCodeNnn(OP_LDI, addr)
}

// MakeCodeDrw creates a draw of an n row sprite at (vx, vy).
func MakeCodeDrw(x, y, n uint8) Code {
	return makeCodeXyn(OP_DRW, x, y, n)
}

// MakeCodeAddI creates an add of vx to the index register.
func MakeCodeAddI(x uint8) Code {
	return makeCodeXnn(OP_MISC, x, MISC_OP_ADD_I)
}

// String returns the assembly language representation of this instruction.
// Words outside of the implemented subset are rendered as data.
func (code Code) String() (out string) {
	ins := code.Decode()

	if !code.Implemented() {
		out = fmt.Sprintf(".word 0x%04x", uint16(code))
		return
	}

	switch ins.Class {
	case OP_JP, OP_CALL:
		out = fmt.Sprintf("%v 0x%03x", ins.Class, ins.Nnn)
	case OP_SE, OP_LD, OP_ADD:
		out = fmt.Sprintf("%v v%x 0x%02x", ins.Class, ins.X, ins.Nn)
	case OP_ALU:
		out = fmt.Sprintf("ld v%x v%x", ins.X, ins.Y)
	case OP_LDI:
		out = fmt.Sprintf("ld i 0x%03x", ins.Nnn)
	case OP_DRW:
		out = fmt.Sprintf("drw v%x v%x %d", ins.X, ins.Y, ins.N)
	case OP_MISC:
		out = fmt.Sprintf("add i v%x", ins.X)
	}

	return
}
