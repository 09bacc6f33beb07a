package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/memory"
)

// Surface is the display surface interface.
type Surface io.Surface

var _cpu_defines = map[string]string{
	"ORIGIN":      fmt.Sprintf("0x%x", ORIGIN),
	"MEMORY_SIZE": fmt.Sprintf("0x%x", memory.MEMORY_SIZE),
	"STACK_LIMIT": fmt.Sprintf("%v", STACK_LIMIT),
}

// State is the register file of the CPU.
type State struct {
	Pc       uint16    // Current program counter.
	PrevPc   uint16    // Program counter of the last executed cycle.
	Index    uint16    // Index register (I).
	Register [16]uint8 // Register bank (v0-vf).
	Stack    Stack     // Call stack.
}

// Cpu is the simulation context for the CHIP-8 CPU.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	// If set, call pushes the return address instead of the call target.
	ReturnAddressCall bool

	Memory  *memory.Memory // Reference to the memory simulation.
	Display Surface        // Target of sprite draws. May be nil.

	State

	Ticks int // Executed instruction counter.
}

// NewCpu creates a new CPU attached to a memory and a display surface.
func NewCpu(mem *memory.Memory, display Surface) (cpu *Cpu) {
	cpu = &Cpu{
		Memory:  mem,
		Display: display,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears the registers, index, and stack.
// - Zeros the tick counter.
// - Sets the program counter to ORIGIN.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.State = State{
		Pc:     ORIGIN,
		PrevPc: NO_PC,
	}
	cpu.Ticks = 0
}

// FetchCode fetches the instruction word at the program counter.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.Memory == nil {
		err = ErrMemoryMissing
		return
	}

	word, err := cpu.Memory.PeekWord(cpu.Pc)
	if err != nil {
		return
	}

	code = Code(word)
	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	return
}

// Execute executes a single instruction word, as if fetched from the
// program counter. The CPU state and the display are only updated if the
// instruction succeeds.
//
// Program counter alignment is not checked: a jump or call to an odd
// address is taken, and fetching continues from there.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode{Pc: cpu.Pc, Code: code}, err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	if cpu.Memory == nil {
		err = ErrMemoryMissing
		return
	}

	// A handler that did not move the program counter would loop forever.
	if cpu.PrevPc == cpu.Pc {
		err = ErrProgramCounterStalled
		return
	}

	ins := code.Decode()

	next := cpu.State
	next.PrevPc = cpu.Pc
	next_pc := cpu.Pc + 2

	var sprite []byte
	var draw bool

	switch ins.Class {
	case OP_JP:
		next_pc = ins.Nnn
	case OP_CALL:
		// The call target, not the return address, is pushed unless
		// ReturnAddressCall is set. There is no return instruction
		// to consume either.
		pushed := ins.Nnn
		if cpu.ReturnAddressCall {
			pushed = cpu.Pc + 2
		}
		if !next.Stack.Push(pushed) {
			err = ErrStackOverflow
			return
		}
		next_pc = ins.Nnn
	case OP_SE:
		if next.Register[ins.X] == ins.Nn {
			next_pc = cpu.Pc + 4
		}
	case OP_LD:
		next.Register[ins.X] = ins.Nn
	case OP_ADD:
		next.Register[ins.X] += ins.Nn
	case OP_ALU:
		switch ins.N {
		case ALU_OP_LD:
			next.Register[ins.X] = next.Register[ins.Y]
		default:
			err = ErrInstructionUnknown
			return
		}
	case OP_LDI:
		next.Index = ins.Nnn
	case OP_DRW:
		sprite, err = cpu.Memory.Slice(next.Index, int(ins.N))
		if err != nil {
			return
		}
		draw = true
	case OP_MISC:
		switch ins.Nn {
		case MISC_OP_ADD_I:
			next.Index += uint16(next.Register[ins.X])
		default:
			err = ErrInstructionUnknown
			return
		}
	default:
		err = ErrInstructionUnknown
		return
	}

	next.Pc = next_pc
	cpu.State = next

	if draw && cpu.Display != nil {
		cpu.Display.DrawSprite(next.Register[ins.X], next.Register[ins.Y], sprite)
	}

	cpu.Ticks++

	return
}

// Snapshot is a copy of the CPU state, for tracing.
type Snapshot struct {
	Pc       uint16
	Index    uint16
	Register [16]uint8
	Stack    []uint16
	Ticks    int

	Code   Code // Instruction at Pc, if CodeOk.
	CodeOk bool
}

// Snapshot returns a copy of the current CPU state.
func (cpu *Cpu) Snapshot() (snap Snapshot) {
	snap = Snapshot{
		Pc:       cpu.Pc,
		Index:    cpu.Index,
		Register: cpu.Register,
		Stack:    slices.Collect(cpu.Stack.Values()),
		Ticks:    cpu.Ticks,
	}

	code, err := cpu.FetchCode()
	if err == nil {
		snap.Code = code
		snap.CodeOk = true
	}

	return
}

// String returns the snapshot as a string.
func (snap Snapshot) String() (text string) {
	regs := []string{
		"pc",
		"op",
		"i",
		"v0-v7",
		"v8-vf",
		"stack",
		"ticks",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("0x%03x", snap.Pc)
		case "op":
			strval = "----"
			if snap.CodeOk {
				strval = snap.Code.String()
			}
		case "i":
			strval = fmt.Sprintf("0x%03x", snap.Index)
		case "v0-v7", "v8-vf":
			base := 0
			if reg == "v8-vf" {
				base = 8
			}
			vals := make([]string, 8)
			for n := range vals {
				vals[n] = fmt.Sprintf("%02x", snap.Register[base+n])
			}
			strval = strings.Join(vals, " ")
		case "stack":
			strval = "-"
			if len(snap.Stack) > 0 {
				vals := make([]string, len(snap.Stack))
				for n, val := range snap.Stack {
					vals[n] = fmt.Sprintf("0x%03x", val)
				}
				strval = strings.Join(vals, " ")
			}
		case "ticks":
			strval = fmt.Sprintf("%d", snap.Ticks)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return cpu.Snapshot().String()
}
