// Package cpu implements the microprocessor and assembler for the CHIP-8
// virtual machine.
//
// The CPU consists of a program counter (PC), sixteen 8-bit general-purpose
// registers (v0-vf), a 16-bit index register (I), and a bounded call stack.
// Each Tick fetches one big-endian instruction word from memory, decodes it,
// and applies it atomically: a failing instruction leaves no trace in the
// CPU state, the memory, or the display surface.
//
// Only a subset of the CHIP-8 instruction set is implemented: jp, call,
// se, ld, add, ld vx vy, ld i, drw and add i. Every other word fails with
// ErrInstructionUnknown.
//
// The assembler provides a small assembly language for that subset,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
