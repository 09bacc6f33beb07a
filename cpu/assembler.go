// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

func init() {
	for key, value := range _cpu_defines {
		sysEquate[key] = value
	}
}

// Assembler is a single pass macro assembler for the CHIP-8 subset.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	expansion int                 // Count of macro expansions.
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) > 1 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// valueIn returns the value of a word, which must be in [0, limit].
func (asm *Assembler) valueIn(word string, limit int) (value int, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value < 0 || value > limit {
		err = ErrValueRange
		return
	}

	return
}

// register returns the index of a vX register name.
func (asm *Assembler) register(word string) (reg uint8, err error) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		err = ErrRegisterInvalid
		return
	}

	index, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		err = ErrRegisterInvalid
		return
	}

	reg = uint8(index)
	return
}

// isRegister returns true if the word is a vX register name.
func (asm *Assembler) isRegister(word string) bool {
	_, err := asm.register(word)
	return err == nil
}

// address returns an address value, or the label to link it to.
func (asm *Assembler) address(word string) (addr uint16, label string, err error) {
	value, err := asm.valueIn(word, 0xfff)
	if err == nil {
		addr = uint16(value)
		return
	}

	_, is_number := err.(ErrParseNumber)
	if is_number && reLabel.MatchString(word) {
		label = word
		err = nil
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var number int
		number, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(number)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words, expanding any macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(strings.ReplaceAll(line, ",", " "))

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Each expansion gets its own set of '@' labels.
		asm.expansion++
		unique := fmt.Sprintf("%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", unique)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the load address of the next opcode.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return ORIGIN
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Data)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.expansion = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	op, err := asm.link()
	if err != nil {
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// link resolves the label of every opcode that references one.
// On failure, op is the opcode that could not be linked.
func (asm *Assembler) link() (op *Opcode, err error) {
	for n := range asm.Opcode {
		op = &asm.Opcode[n]

		label := op.LinkLabel
		if len(label) == 0 {
			continue
		}

		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			err = ErrValueRange
			return
		}
		if len(op.Data) != 2 {
			err = ErrLabelUnlinkable
			return
		}
		op.Data[0] |= byte((addr >> 8) & 0x0f)
		op.Data[1] |= byte(addr & 0xff)
	}

	op = nil
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	emit := func(code Code) {
		data = append(data, code.Bytes()...)
	}

	args := words[1:]

	// Operand count checks for the fixed form instructions.
	argc := func(n int) bool {
		switch {
		case len(args) < n:
			err = ErrOpcodeValueMissing
		case len(args) > n:
			err = ErrOpcodeExtraArgs
		}
		return err == nil
	}

	switch words[0] {
	case ".byte":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value int
			value, err = asm.valueIn(arg, 0xff)
			if err != nil {
				return
			}
			data = append(data, byte(value))
		}
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value int
			value, err = asm.valueIn(arg, 0xffff)
			if err != nil {
				return
			}
			emit(Code(value))
		}
	case "jp", "call":
		if !argc(1) {
			return
		}
		var addr uint16
		addr, label, err = asm.address(args[0])
		if err != nil {
			return
		}
		if words[0] == "jp" {
			emit(MakeCodeJp(addr))
		} else {
			emit(MakeCodeCall(addr))
		}
	case "se":
		if !argc(2) {
			return
		}
		var x uint8
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		var nn int
		nn, err = asm.valueIn(args[1], 0xff)
		if err != nil {
			return
		}
		emit(MakeCodeSe(x, uint8(nn)))
	case "ld":
		if !argc(2) {
			return
		}
		if strings.ToLower(args[0]) == "i" {
			var addr uint16
			addr, label, err = asm.address(args[1])
			if err != nil {
				return
			}
			emit(MakeCodeLdI(addr))
			break
		}
		var x uint8
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		if asm.isRegister(args[1]) {
			y, _ := asm.register(args[1])
			emit(MakeCodeLdReg(x, y))
			break
		}
		var nn int
		nn, err = asm.valueIn(args[1], 0xff)
		if err != nil {
			return
		}
		emit(MakeCodeLd(x, uint8(nn)))
	case "add":
		if !argc(2) {
			return
		}
		if strings.ToLower(args[0]) == "i" {
			var x uint8
			x, err = asm.register(args[1])
			if err != nil {
				return
			}
			emit(MakeCodeAddI(x))
			break
		}
		var x uint8
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		if asm.isRegister(args[1]) {
			// 8xy4 is outside of the implemented subset.
			err = ErrOpcodeInvalid
			return
		}
		var nn int
		nn, err = asm.valueIn(args[1], 0xff)
		if err != nil {
			return
		}
		emit(MakeCodeAdd(x, uint8(nn)))
	case "drw":
		if !argc(3) {
			return
		}
		var x, y uint8
		x, err = asm.register(args[0])
		if err != nil {
			return
		}
		y, err = asm.register(args[1])
		if err != nil {
			return
		}
		var n int
		n, err = asm.valueIn(args[2], 0xf)
		if err != nil {
			return
		}
		emit(MakeCodeDrw(x, y, uint8(n)))
	default:
		err = ErrInstructionInvalid
		return
	}

	addr := asm.currentAddr()
	if addr+len(data) > ARENA_END {
		err = ErrProgramTooLarge
		return
	}

	opcode := Opcode{LineNo: lineno, Addr: addr, Words: words, Data: data, LinkLabel: label}
	asm.Opcode = append(asm.Opcode, opcode)

	return
}
