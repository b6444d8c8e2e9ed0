package cpu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HDLb0 RAM routing constants.
const (
	HDLB0_CHIP_PASS = uint32(0)  // Pass input_a through to the output address.
	HDLB0_CHIP_NAND = uint32(1)  // NAND input_a and input_b into the output address.
	HDLB0_BLANK     = uint32(3)  // Unused input_b.
	HDLB0_RAM_BASE  = uint32(16) // RAM address of register 0.
)

// HDLb0 is one line of the four field interchange format:
// chip, ram output address, input a, input b.
type HDLb0 struct {
	Chip   uint32
	Output uint32
	InputA uint32
	InputB uint32
}

func hdlb0Register(reg int) uint32 {
	return HDLB0_RAM_BASE + uint32(reg)
}

func hdlb0Memory(class Class, addr uint32) uint32 {
	return HDLB0_RAM_BASE + uint32(class.Registers) + addr
}

func hdlb0Pc(class Class) uint32 {
	return HDLB0_RAM_BASE + uint32(class.Registers) + uint32(class.MemorySize)
}

// HDLb0 returns the RAM routing of the instruction.
func (inst Instruction) HDLb0(class Class) (line HDLb0, err error) {
	err = inst.validate(class)
	if err != nil {
		return
	}

	switch inst.Op {
	case OP_NAND:
		line = HDLb0{
			Chip:   HDLB0_CHIP_NAND,
			Output: hdlb0Register(inst.Rd),
			InputA: hdlb0Register(inst.Ra),
			InputB: hdlb0Register(inst.Rb),
		}
	case OP_LOAD:
		line = HDLb0{
			Chip:   HDLB0_CHIP_PASS,
			Output: hdlb0Register(inst.Rd),
			InputA: hdlb0Memory(class, inst.Addr),
			InputB: HDLB0_BLANK,
		}
	case OP_STORE:
		line = HDLb0{
			Chip:   HDLB0_CHIP_PASS,
			Output: hdlb0Memory(class, inst.Addr),
			InputA: hdlb0Register(inst.Rd),
			InputB: HDLB0_BLANK,
		}
	case OP_JUMP:
		line = HDLb0{
			Chip:   HDLB0_CHIP_PASS,
			Output: hdlb0Pc(class),
			InputA: hdlb0Register(inst.Rd),
			InputB: HDLB0_BLANK,
		}
	}

	return
}

// ramSpace classifies a RAM address as a register, memory byte or the pc.
func ramSpace(class Class, ram uint32) (space string, index uint32) {
	regs := uint32(class.Registers)
	mem := uint32(class.MemorySize)

	switch {
	case ram < HDLB0_RAM_BASE:
		space = "low"
		index = ram
	case ram < HDLB0_RAM_BASE+regs:
		space = "register"
		index = ram - HDLB0_RAM_BASE
	case ram < HDLB0_RAM_BASE+regs+mem:
		space = "memory"
		index = ram - HDLB0_RAM_BASE - regs
	case ram == HDLB0_RAM_BASE+regs+mem:
		space = "pc"
	default:
		space = "high"
		index = ram
	}

	return
}

// FromHDLb0 recovers the instruction a line of HDLb0 routes.
func FromHDLb0(class Class, line HDLb0) (inst Instruction, err error) {
	out, outIndex := ramSpace(class, line.Output)
	a, aIndex := ramSpace(class, line.InputA)
	b, bIndex := ramSpace(class, line.InputB)

	switch {
	case line.Chip == HDLB0_CHIP_NAND && out == "register" && a == "register" && b == "register":
		inst = MakeNand(int(outIndex), int(aIndex), int(bIndex))
	case line.Chip != HDLB0_CHIP_PASS || line.InputB != HDLB0_BLANK:
		err = ErrHDLb0Route
	case out == "register" && a == "memory":
		inst = MakeLoad(int(outIndex), aIndex)
	case out == "memory" && a == "register":
		inst = MakeStore(int(aIndex), outIndex)
	case out == "pc" && a == "register":
		inst = MakeJump(int(aIndex))
	default:
		err = ErrHDLb0Route
	}
	if err != nil {
		return
	}

	err = inst.validate(class)

	return
}

// Format the line with fields of the given bit width.
func (line HDLb0) Format(bits int) string {
	return fmt.Sprintf("%0*b %0*b %0*b %0*b",
		bits, line.Chip, bits, line.Output, bits, line.InputA, bits, line.InputB)
}

// ParseHDLb0Line parses the four binary fields of one line.
// Anything after a '#' is ignored.
func ParseHDLb0Line(text string, bits int) (line HDLb0, err error) {
	text, _, _ = strings.Cut(text, "#")
	words := strings.Fields(text)
	if len(words) != 4 {
		err = ErrHDLb0Syntax
		return
	}

	var values [4]uint32
	for n, word := range words {
		var value uint64
		value, err = strconv.ParseUint(word, 2, bits)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
		values[n] = uint32(value)
	}

	line = HDLb0{Chip: values[0], Output: values[1], InputA: values[2], InputB: values[3]}

	return
}

// ParseHDLb0 reads an HDLb0 listing into a program, placing the
// instructions one after another from address 0.
func ParseHDLb0(r io.Reader, class Class) (prog *Program, err error) {
	if !class.Valid() {
		err = ErrWidthInvalid
		return
	}

	scanner := bufio.NewScanner(r)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: text, Err: err}
		}
	}()

	prog = &Program{Class: class}

	var pc uint32
	for scanner.Scan() {
		text = scanner.Text()
		lineno++

		body, _, _ := strings.Cut(text, "#")
		if len(strings.TrimSpace(body)) == 0 {
			continue
		}

		var line HDLb0
		line, err = ParseHDLb0Line(body, class.HDLb0Bits)
		if err != nil {
			return
		}

		var inst Instruction
		inst, err = FromHDLb0(class, line)
		if err != nil {
			return
		}

		var data []byte
		data, err = inst.Encode(class)
		if err != nil {
			return
		}
		if int(pc)+len(data) > class.MemorySize {
			err = &ErrOperand{Field: "pc", Value: pc}
			return
		}

		prog.Statements = append(prog.Statements, Statement{
			LineNo:      lineno,
			Pc:          pc,
			Words:       strings.Fields(body),
			Instruction: &inst,
			Data:        data,
		})
		pc += uint32(len(data))
	}

	err = scanner.Err()

	return
}

// WriteHDLb0 writes one HDLb0 line per instruction.
func WriteHDLb0(w io.Writer, class Class, insts ...Instruction) (err error) {
	for _, inst := range insts {
		var line HDLb0
		line, err = inst.HDLb0(class)
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%v # %v\n", line.Format(class.HDLb0Bits), inst)
		if err != nil {
			return
		}
	}

	return
}
