// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator composes the CHIP-8 machine: CPU, memory, and display.
package emulator

import (
	"errors"
	"iter"
	"log"
	"slices"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/memory"
)

// Emulator state. CPU + memory + display.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.

	Memory  memory.Memory // Main memory.
	Display io.Display    // Display surface.
	Rom     io.Rom        // Program image, reloaded on reset.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Cpu = cpu.NewCpu(&emu.Memory, &emu.Display)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.Cpu.Defines(),
		emu.Display.Defines(),
	)
}

// Assembler returns an assembler with the emulator's defines.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// Load copies a program image into memory at the origin.
// Memory is untouched if the image does not fit. Any program listing
// is discarded.
func (emu *Emulator) Load(data []byte) (err error) {
	if len(data) > memory.MEMORY_SIZE-cpu.ORIGIN {
		err = ErrProgramTooLarge
		return
	}

	if emu.Verbose {
		log.Printf("emulator: load %d bytes at 0x%03x", len(data), cpu.ORIGIN)
	}

	err = emu.Memory.Load(cpu.ORIGIN, data)
	if err != nil {
		return
	}

	emu.Rom.Data = slices.Clone(data)
	emu.Program = &cpu.Program{}

	return
}

// LoadProgram loads an assembled program, and keeps its listing.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// Reset the machine. Memory is cleared, and the program image reloaded.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Memory.Reset()
	emu.Display.Reset()
	emu.Cpu.Reset()

	err = emu.Memory.Load(cpu.ORIGIN, emu.Rom.Data)
	return
}

// LineNo returns the current line number for the executing opcode.
// Returns 0 if there is no listing for the program counter.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Halted returns true if the CPU is parked on a jump to itself.
func (emu *Emulator) Halted() bool {
	code, err := emu.Cpu.FetchCode()
	if err != nil {
		return false
	}

	return code == cpu.MakeCodeJp(emu.Cpu.Pc)
}

// Step performs a single instruction cycle of the emulator.
func (emu *Emulator) Step() (err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	return
}

// Run steps the emulator until an error, a halt, or limit cycles have
// executed. A limit of 0 is unbounded.
func (emu *Emulator) Run(limit int) (halted bool, err error) {
	for n := 0; limit == 0 || n < limit; n++ {
		err = emu.Step()
		if err == nil {
			continue
		}

		if errors.Is(err, cpu.ErrProgramCounterStalled) && emu.Halted() {
			if emu.Verbose {
				log.Printf("emulator: halted at 0x%03x", emu.Cpu.Pc)
			}
			halted = true
			err = nil
		}
		return
	}

	return
}
