// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

func init() {
	log.SetFlags(0)
	log.SetPrefix("chip8: ")
}

// assemble parses the named source file into a program.
func assemble(emu *emulator.Emulator, path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err = emu.Assembler().Parse(inf)
	return
}

// readRom loads the named program image.
func readRom(emu *emulator.Emulator, path string) (err error) {
	err = emu.Rom.Open(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return
	}

	err = emu.Load(emu.Rom.Data)
	return
}

// runText runs the emulator, writing display frames to out.
// If trace is set, a CPU snapshot is written before each cycle.
func runText(emu *emulator.Emulator, out *os.File, limit int, trace *os.File) (err error) {
	console := &io.Console{Output: out, Display: &emu.Display}

	for n := 0; limit == 0 || n < limit; n++ {
		if trace != nil {
			fmt.Fprintf(trace, "%v\n", emu.Cpu.String())
		}

		var halted bool
		halted, err = emu.Run(1)
		if err != nil {
			err = errors.Join(err, console.Flush())
			return
		}

		err = console.Flush()
		if err != nil {
			return
		}

		if halted {
			if emu.Verbose {
				log.Printf("halted after %d cycles", emu.Cpu.Ticks)
			}
			return
		}
	}

	return
}

func main() {
	var compile string
	var rom string
	var save bool
	var output string
	var limit int
	var verbose bool
	var trace bool
	var tui bool
	var callReturn bool

	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.StringVar(&rom, "r", "", "ROM image to run")
	flag.BoolVar(&save, "s", false, "Save compiled image to output, do not execute")
	flag.StringVar(&output, "o", "-", "Display (or saved image) output")
	flag.IntVar(&limit, "n", 0, "Cycle limit (0 is unlimited)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&trace, "t", false, "Trace CPU state to stderr")
	flag.BoolVar(&tui, "tui", false, "Run in a terminal UI")
	flag.BoolVar(&callReturn, "call-return", false, "Push the return address on call, instead of the target")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(compile) == 0) == (len(rom) == 0) {
		log.Fatalf("%v: One of -c or -r is required", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Cpu.ReturnAddressCall = callReturn

	// Compile a new program.
	if len(compile) != 0 {
		prog, err := assemble(emu, compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if save {
			data := prog.Binary()
			if output == "-" {
				_, err = os.Stdout.Write(data)
			} else {
				err = os.WriteFile(output, data, 0o644)
			}
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}

		err = emu.LoadProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(rom) != 0 {
		err := readRom(emu, rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
	}

	if tui {
		err := runTui(emu, limit)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	ouf := os.Stdout
	if output != "-" {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}

	var tracef *os.File
	if trace {
		tracef = os.Stderr
	}

	err := runText(emu, ouf, limit, tracef)
	if err != nil {
		log.Fatal(err)
	}
}
