package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/memory"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Empty(prog.Binary())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0x200", asm.Equate["ORIGIN"])
	assert.Equal("0x1000", asm.Equate["MEMORY_SIZE"])
	assert.Equal("16", asm.Equate["STACK_LIMIT"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func parse(t *testing.T, program ...string) (prog *Program) {
	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestAssemblerInstructions(t *testing.T) {
	program := []string{
		"ld v0 5",
		"add v0, 3",
		"ld i 0x200",
		"se vA 0x7f",
		"ld v1 ve",
		"add i v1",
		"drw v0 v1 15",
		"call 0x300",
		"jp 0x200",
	}

	prog := parse(t, program...)

	expected := []Opcode{
		{1, 0x200, []string{"ld", "v0", "5"}, []byte{0x60, 0x05}, ""},
		{2, 0x202, []string{"add", "v0", "3"}, []byte{0x70, 0x03}, ""},
		{3, 0x204, []string{"ld", "i", "0x200"}, []byte{0xa2, 0x00}, ""},
		{4, 0x206, []string{"se", "vA", "0x7f"}, []byte{0x3a, 0x7f}, ""},
		{5, 0x208, []string{"ld", "v1", "ve"}, []byte{0x81, 0xe0}, ""},
		{6, 0x20a, []string{"add", "i", "v1"}, []byte{0xf1, 0x1e}, ""},
		{7, 0x20c, []string{"drw", "v0", "v1", "15"}, []byte{0xd0, 0x1f}, ""},
		{8, 0x20e, []string{"call", "0x300"}, []byte{0x23, 0x00}, ""},
		{9, 0x210, []string{"jp", "0x200"}, []byte{0x12, 0x00}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"sprite: .byte 0xf0 0x90 0x90 0xf0",
		".byte 'A', '\\n'",
		".word 0x1234 0",
	}

	prog := parse(t, program...)

	assert.Equal([]byte{
		0xf0, 0x90, 0x90, 0xf0,
		'A', '\n',
		0x12, 0x34, 0x00, 0x00,
	}, prog.Binary())
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".equ CONST_10 0x10",
		"ld v0 CONST_10",
		"ld v1 $(CONST_10 + CONST_10)",
		".equ CONST_30 $(2 * CONST_10 + CONST_10)",
		"ld v2 CONST_30",
		"ld v3 $(LINENO * 8 + 0x10)",
		".equ COUNTER v4",
		"add COUNTER 1",
		"ld i $(ORIGIN + 0x100)",
	}

	prog := parse(t, program...)

	assert.Equal([]byte{
		0x60, 0x10,
		0x61, 0x20,
		0x62, 0x30,
		0x63, 0x40,
		0x74, 0x01,
		0xa3, 0x00,
	}, prog.Binary())
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("DISPLAY_WIDTH", "64")
	asm.Predefine("ORIGIN", "0x300")

	prog, err := asm.Parse(strings.NewReader("ld v0 $(DISPLAY_WIDTH - 1)\nld i ORIGIN\n"))
	assert.NoError(err)
	assert.Equal([]byte{0x60, 0x3f, 0xa3, 0x00}, prog.Binary())
}

func TestAssemblerMacro(t *testing.T) {
	program := []string{
		".macro SETADD vn a b",
		"ld vn a",
		"add vn b",
		".endm",
		"SETADD v0 8 8",
		".equ CONST_10 0x10",
		"SETADD v1 CONST_10 CONST_10",
		".macro NESTED VALUE",
		"SETADD v2 VALUE $(0xff - VALUE)",
		".endm",
		"NESTED 1",
	}

	prog := parse(t, program...)

	expected := []Opcode{
		{2, 0x200, []string{"ld", "v0", "8"}, []byte{0x60, 0x08}, ""},
		{3, 0x202, []string{"add", "v0", "8"}, []byte{0x70, 0x08}, ""},
		{2, 0x204, []string{"ld", "v1", "0x10"}, []byte{0x61, 0x10}, ""},
		{3, 0x206, []string{"add", "v1", "0x10"}, []byte{0x71, 0x10}, ""},
		{2, 0x208, []string{"ld", "v2", "1"}, []byte{0x62, 0x01}, ""},
		{3, 0x20a, []string{"add", "v2", "254"}, []byte{0x72, 0xfe}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerMacroLabel(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro SPIN",
		"@loop: jp @loop",
		".endm",
		"ld v0 1",
		"SPIN",
		"SPIN",
	}

	prog := parse(t, program...)

	assert.Equal([]byte{0x60, 0x01, 0x12, 0x02, 0x12, 0x04}, prog.Binary())
	assert.Equal("SPIN_1_loop", prog.Opcodes[1].LinkLabel)
	assert.Equal("SPIN_2_loop", prog.Opcodes[2].LinkLabel)
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"jp START",
		"SPRITE: .byte 0xc0 0x3f",
		"START: AND_ALSO:",
		"ld i SPRITE",
		"call FUNC",
		"",
		"FUNC:",
		"drw v0 v1 2",
		"jp FUNC",
	}

	prog := parse(t, program...)

	assert.Equal(6, len(prog.Opcodes))
	assert.Equal([]byte{
		0x12, 0x04,
		0xc0, 0x3f,
		0xa2, 0x02,
		0x22, 0x08,
		0xd0, 0x12,
		0x12, 0x08,
	}, prog.Binary())
	assert.Equal("START", prog.Opcodes[0].LinkLabel)
	assert.Equal("SPRITE", prog.Opcodes[2].LinkLabel)
}

func TestAssemblerComments(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"; this does not count as an opcode.",
		"   ld v0 1 ; nor does this",
		"",
		";ld v1 2",
	}

	prog := parse(t, program...)

	assert.Equal(1, len(prog.Opcodes))
	assert.Equal(2, prog.Opcodes[0].LineNo)
}

func TestAssemblerTooLarge(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	fill := ".word " + strings.Repeat("0 ", (ARENA_END-ORIGIN)/2)
	prog, err := asm.Parse(strings.NewReader(fill))
	assert.NoError(err)
	assert.Equal(ARENA_END-ORIGIN, len(prog.Binary()))

	_, err = asm.Parse(strings.NewReader(fill + "\n.byte 0\n"))
	assert.ErrorIs(err, ErrProgramTooLarge)

	var se *ErrSyntax
	if assert.True(errors.As(err, &se)) {
		assert.Equal(2, se.LineNo)
	}
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"ld v0 nothing", 1, ErrParseNumber("nothing")},
		{"ld v0 $(\"aaa\")", 1, nil},
		{"ld v0 $(more(\"aaa\"))", 1, nil},
		{"ld v0 0x100", 1, ErrValueRange},
		{"ld v0 -1", 1, ErrValueRange},
		{"ld v0", 1, ErrOpcodeValueMissing},
		{"ld v0 1 2", 1, ErrOpcodeExtraArgs},
		{"ld vg 1", 1, ErrRegisterInvalid},
		{"ld v10 1", 1, ErrRegisterInvalid},
		{"ld i", 1, ErrOpcodeValueMissing},
		{"ld i 0x1000", 1, ErrValueRange},
		{"add v0 v1", 1, ErrOpcodeInvalid},
		{"add i 1", 1, ErrRegisterInvalid},
		{"se v0", 1, ErrOpcodeValueMissing},
		{"drw v0 v1 16", 1, ErrValueRange},
		{"drw v0 v1", 1, ErrOpcodeValueMissing},
		{"jp", 1, ErrOpcodeValueMissing},
		{"jp all over", 1, ErrOpcodeExtraArgs},
		{"ld v0 1\njp nowhere", 2, ErrLabelMissing("nowhere")},
		{"call 0x1000", 1, ErrValueRange},
		{".byte", 1, ErrOpcodeValueMissing},
		{".byte 256", 1, ErrValueRange},
		{".word 0x10000", 1, ErrValueRange},
		{"cls", 1, ErrInstructionInvalid},
		{"ret", 1, ErrInstructionInvalid},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".equ ORIGIN 0", 1, ErrEquateDuplicate},
		{".macro", 1, ErrMacroSyntax},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B C\nB C\n.endm\nA jp,0x200\nA invalid word\n", 5, ErrInstructionInvalid},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\nld v0 1\n", 2, ErrMacroLonely},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
			if entry.err != nil {
				assert.ErrorIs(err, entry.err, entry.prog)
			}
		}
	}
}

func TestAssemblerLink(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{
		Label: map[string]int{"HERE": 0x204},
		Opcode: []Opcode{
			{1, 0x200, []string{"jp", "HERE"}, []byte{0x10, 0x00}, "HERE"},
			{2, 0x202, []string{".byte", "HERE"}, []byte{0x00}, "HERE"},
		},
	}

	op, err := asm.link()
	assert.ErrorIs(err, ErrLabelUnlinkable)
	if assert.NotNil(op) {
		assert.Equal(2, op.LineNo)
	}
	assert.Equal([]byte{0x12, 0x04}, asm.Opcode[0].Data)

	asm.Opcode = asm.Opcode[:1]
	asm.Opcode[0].Data = []byte{0x10, 0x00}
	op, err = asm.link()
	assert.NoError(err)
	assert.Nil(op)
	assert.Equal([]byte{0x12, 0x04}, asm.Opcode[0].Data)
}

func TestAssemblerRuns(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"ld v0 5",
		"add v0 3",
		"ld i ORIGIN",
		"done: jp done",
	}

	prog := parse(t, program...)

	mem := memory.NewMemory()
	assert.NoError(mem.Load(ORIGIN, prog.Binary()))
	cpu := NewCpu(mem, nil)

	var err error
	for err == nil {
		err = cpu.Tick()
	}
	assert.ErrorIs(err, ErrProgramCounterStalled)
	assert.Equal(uint8(8), cpu.Register[0])
	assert.Equal(uint16(ORIGIN), cpu.Index)
	assert.Equal(uint16(0x206), cpu.Pc)

	dbg := prog.Debug(cpu.Pc)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(4, dbg.LineNo)
	}
}
