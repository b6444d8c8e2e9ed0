// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

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

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// link is a .data byte waiting for a label defined later in the source.
type link struct {
	LineNo int
	Line   string
	Label  string
	Stmt   int // Index into Assembler.Statement
	Offset int // Byte in the statement's data
}

// Assembler is a single pass assembler for the NAND machines.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Class     Class       // Target machine class.
	Statement []Statement // List of generated statements.

	predefine map[string]string // Predefines
	Label     map[string]uint32 // Map of labels to instruction indexes.
	Equate    map[string]string // Map of equates.

	pc    uint32 // Location counter.
	links []link
}

// NewAssembler creates an assembler for a machine class.
func NewAssembler(class Class) (asm *Assembler) {
	asm = &Assembler{
		Class: class,
	}

	return
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	v64, err := strconv.ParseUint(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	return
}

// indexOf returns the decimal index of a register or memory operand.
func indexOf(word string) (value uint32, err error) {
	v64, err := strconv.ParseUint(word, 10, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeUint(uint(value32))
	}
	for key, index := range asm.Label {
		pred[key] = starlark.MakeUint(uint(index))
	}
	err = nil

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParseExpression(expr), err)
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
	st_uint64, ok := st_int.Uint64()
	if !ok || st_uint64 > 0xffffffff {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_uint64)
	return
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

// parseLine expands a single line into words.
// Handles expressions, .equ, equates and labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
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
	if strings.ToLower(words[0]) == ".equ" {
		if len(words) != 3 || !labelRe.MatchString(words[1]) {
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

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !labelRe.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		// Labels name instruction slots.
		asm.align()
		asm.Label[label] = asm.pc / uint32(asm.Class.InstructionBytes)
		words = words[1:]
	}

	return
}

// align moves the location counter to the next instruction boundary.
func (asm *Assembler) align() {
	size := uint32(asm.Class.InstructionBytes)
	asm.pc = (asm.pc + size - 1) / size * size
}

// register parses an Rn operand.
func (asm *Assembler) register(word string) (reg int, err error) {
	if len(word) < 2 || (word[0] != 'R' && word[0] != 'r') {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
		return
	}

	value, err := indexOf(word[1:])
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRegisterInvalid, err)
		return
	}

	if value >= uint32(asm.Class.Registers) {
		err = &ErrOperand{Field: "register", Value: value}
		return
	}

	reg = int(value)
	return
}

// memory parses a MEMn operand.
func (asm *Assembler) memory(word string) (addr uint32, err error) {
	if len(word) < 4 || !strings.EqualFold(word[:3], "MEM") {
		err = fmt.Errorf("%w: %v", ErrMemoryInvalid, word)
		return
	}

	addr, err = indexOf(word[3:])
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMemoryInvalid, err)
		return
	}

	err = checkAddress(asm.Class, addr)

	return
}

// argCount checks the number of operands.
func argCount(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// emit places bytes at the location counter.
func (asm *Assembler) emit(lineno int, words []string, inst *Instruction, data []byte) (err error) {
	if uint64(asm.pc)+uint64(len(data)) > uint64(asm.Class.MemorySize) {
		err = &ErrOperand{Field: "pc", Value: asm.pc}
		return
	}

	asm.Statement = append(asm.Statement, Statement{
		LineNo:      lineno,
		Pc:          asm.pc,
		Words:       slices.Clone(words),
		Instruction: inst,
		Data:        data,
	})
	asm.pc += uint32(len(data))

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, line string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	args := words[1:]

	var inst Instruction

	switch strings.ToLower(words[0]) {
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var addr uint32
		addr, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if addr > uint32(asm.Class.MemorySize) {
			err = &ErrOperand{Field: "org", Value: addr}
			return
		}
		asm.pc = addr
		return
	case ".data":
		if len(args) == 0 {
			err = ErrDataSyntax
			return
		}
		data := make([]byte, len(args))
		for n, arg := range args {
			value, verr := asm.valueOf(arg)
			if verr != nil {
				if !labelRe.MatchString(arg) {
					err = verr
					return
				}
				// Resolved once the whole source is read.
				asm.links = append(asm.links, link{
					LineNo: lineno,
					Line:   line,
					Label:  arg,
					Stmt:   len(asm.Statement),
					Offset: n,
				})
				continue
			}
			if value > 0xff {
				err = &ErrOperand{Field: "data", Value: value}
				return
			}
			data[n] = byte(value)
		}
		return asm.emit(lineno, words, nil, data)
	case "nand":
		err = argCount(args, 3)
		if err != nil {
			return
		}
		var regs [3]int
		for n := range regs {
			regs[n], err = asm.register(args[n])
			if err != nil {
				return
			}
		}
		inst = MakeNand(regs[0], regs[1], regs[2])
	case "load", "store":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		var reg int
		reg, err = asm.register(args[0])
		if err != nil {
			return
		}
		var addr uint32
		addr, err = asm.memory(args[1])
		if err != nil {
			return
		}
		if strings.ToLower(words[0]) == "load" {
			inst = MakeLoad(reg, addr)
		} else {
			inst = MakeStore(reg, addr)
		}
	case "jump":
		err = argCount(args, 1)
		if err != nil {
			return
		}
		var reg int
		reg, err = asm.register(args[0])
		if err != nil {
			return
		}
		inst = MakeJump(reg)
	default:
		if strings.HasPrefix(words[0], ".") {
			err = ErrDirectiveInvalid
		} else {
			err = ErrOpcodeInvalid
		}
		return
	}

	data, err := inst.Encode(asm.Class)
	if err != nil {
		return
	}

	asm.align()

	return asm.emit(lineno, words, &inst, data)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if !asm.Class.Valid() {
		err = ErrWidthInvalid
		return
	}

	asm.Statement = asm.Statement[:0]
	asm.links = asm.links[:0]
	asm.pc = 0
	asm.Label = make(map[string]uint32, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.Class.Defines() {
		asm.Equate[attr] = val
	}
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text, _, _ = strings.Cut(text, "#")
		line = strings.TrimSpace(text)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, line, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of .data labels.
	for _, ln := range asm.links {
		index, ok := asm.Label[ln.Label]
		if !ok {
			lineno = ln.LineNo
			line = ln.Line
			err = ErrLabelMissing(ln.Label)
			return
		}
		if index > 0xff {
			lineno = ln.LineNo
			line = ln.Line
			err = &ErrOperand{Field: "data", Value: index}
			return
		}
		asm.Statement[ln.Stmt].Data[ln.Offset] = byte(index)
	}

	prog = &Program{
		Class:      asm.Class,
		Statements: slices.Clone(asm.Statement),
	}

	return
}
