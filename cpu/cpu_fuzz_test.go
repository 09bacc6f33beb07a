package cpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/memory"
)

func FuzzCpu(f *testing.F) {
	for class := range 0x10 {
		word := uint16(class << 12)
		f.Add(word|0x000, uint16(0x200), false)
		f.Add(word|0x1e5, uint16(0xffd), true)
		f.Add(word|0xfff, uint16(0x300), true)
	}

	f.Fuzz(func(t *testing.T, word uint16, index uint16, stacked bool) {
		assert := assert.New(t)

		code := Code(word)

		display := &io.Display{}
		cpu := NewCpu(memory.NewMemory(), display)
		cpu.Memory.Load(0x300, []byte{0xff, 0x81, 0x81, 0xff})

		cpu.Index = index
		for n := range cpu.Register {
			cpu.Register[n] = uint8(n * 0x11)
		}
		if stacked {
			for cpu.Stack.Push(0x2aa) {
			}
		}

		before := cpu.State

		err := cpu.Execute(code)

		code_str := fmt.Sprintf("0x%04x (%v)\nindex:0x%03x stacked:%v\ncpu:%v",
			word, code, index, stacked, cpu.String())

		if err != nil {
			var eo ErrOpcode
			assert.True(errors.As(err, &eo), code_str)
			assert.Equal(before, cpu.State, code_str)
			assert.Equal(0, cpu.Ticks, code_str)
			assert.False(display.Dirty, code_str)

			switch {
			case errors.Is(err, ErrInstructionUnknown):
				assert.False(code.Implemented(), code_str)
			case errors.Is(err, ErrStackOverflow):
				assert.Equal(OP_CALL, code.Class(), code_str)
				assert.True(stacked, code_str)
			case errors.Is(err, memory.ErrOutOfBounds):
				assert.Equal(OP_DRW, code.Class(), code_str)
			default:
				assert.NoError(err, code_str)
			}
			return
		}

		assert.True(code.Implemented(), code_str)
		assert.Equal(1, cpu.Ticks, code_str)
		assert.Equal(uint16(ORIGIN), cpu.PrevPc, code_str)

		ins := code.Decode()
		next_pc := uint16(ORIGIN + 2)
		expect := before
		expect.PrevPc = ORIGIN

		switch ins.Class {
		case OP_JP:
			next_pc = ins.Nnn
		case OP_CALL:
			next_pc = ins.Nnn
			expect.Stack.Push(ins.Nnn)
		case OP_SE:
			if before.Register[ins.X] == ins.Nn {
				next_pc = ORIGIN + 4
			}
		case OP_LD:
			expect.Register[ins.X] = ins.Nn
		case OP_ADD:
			expect.Register[ins.X] += ins.Nn
		case OP_ALU:
			expect.Register[ins.X] = before.Register[ins.Y]
		case OP_LDI:
			expect.Index = ins.Nnn
		case OP_DRW:
			assert.True(display.Dirty, code_str)
			assert.Equal(1, display.Draws, code_str)
		case OP_MISC:
			expect.Index += uint16(before.Register[ins.X])
		}
		expect.Pc = next_pc

		assert.Equal(expect, cpu.State, code_str)
	})
}
