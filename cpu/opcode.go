package cpu

import (
	"fmt"
)

// Opcode is the two bit operation selector.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_NAND  = Opcode(0) // NAND
	OP_LOAD  = Opcode(1) // LOAD
	OP_STORE = Opcode(2) // STORE
	OP_JUMP  = Opcode(3) // JUMP
)

// Instruction is a decoded instruction word.
//
//   - NAND: Rd = Ra NAND Rb
//   - LOAD: Rd = memory[Addr]
//   - STORE: memory[Addr] = Rd
//   - JUMP: pc = Rd * InstructionBytes
//
// Fields not used by the opcode are zero.
type Instruction struct {
	Op   Opcode
	Rd   int
	Ra   int
	Rb   int
	Addr uint32
}

// MakeNand creates a NAND instruction.
func MakeNand(dest, src1, src2 int) Instruction {
	return Instruction{Op: OP_NAND, Rd: dest, Ra: src1, Rb: src2}
}

// MakeLoad creates a LOAD instruction.
func MakeLoad(dest int, addr uint32) Instruction {
	return Instruction{Op: OP_LOAD, Rd: dest, Addr: addr}
}

// MakeStore creates a STORE instruction.
func MakeStore(src int, addr uint32) Instruction {
	return Instruction{Op: OP_STORE, Rd: src, Addr: addr}
}

// MakeJump creates a JUMP instruction.
func MakeJump(src int) Instruction {
	return Instruction{Op: OP_JUMP, Rd: src}
}

// fieldBits is the width of the operand field following the opcode byte.
func fieldBits(class Class) int {
	return 8*class.InstructionBytes - 8
}

// checkRegister validates a register field.
func checkRegister(class Class, field string, reg int) (err error) {
	if reg < 0 || reg >= class.Registers {
		err = &ErrOperand{Field: field, Value: uint32(reg)}
	}
	return
}

// checkAddress validates a memory operand against the word size.
func checkAddress(class Class, addr uint32) (err error) {
	if uint64(addr)+uint64(class.WordBytes) > uint64(class.MemorySize) {
		err = &ErrOperand{Field: "address", Value: addr}
	}
	return
}

// validate checks every field the opcode uses.
func (inst Instruction) validate(class Class) (err error) {
	err = checkRegister(class, "rd", inst.Rd)
	if err != nil {
		return
	}

	switch inst.Op {
	case OP_NAND:
		err = checkRegister(class, "ra", inst.Ra)
		if err != nil {
			return
		}
		err = checkRegister(class, "rb", inst.Rb)
	case OP_LOAD, OP_STORE:
		err = checkAddress(class, inst.Addr)
	case OP_JUMP:
	default:
		err = fmt.Errorf("%w: %d", ErrOpcodeInvalid, int(inst.Op))
	}

	return
}

// Encode the instruction as a big-endian instruction word.
func (inst Instruction) Encode(class Class) (data []byte, err error) {
	if !class.Valid() {
		err = ErrWidthInvalid
		return
	}

	err = inst.validate(class)
	if err != nil {
		return
	}

	bits := fieldBits(class)

	var operand uint32
	switch inst.Op {
	case OP_NAND:
		operand = uint32(inst.Ra)<<class.RegisterBits | uint32(inst.Rb)
	case OP_LOAD, OP_STORE:
		operand = inst.Addr
	}

	word := uint32(inst.Op)<<(bits+6) | uint32(inst.Rd)<<bits | operand

	data = make([]byte, class.InstructionBytes)
	for n := range data {
		data[n] = byte(word >> (8 * (len(data) - 1 - n)))
	}

	return
}

// DecodeFields splits an instruction word into opcode, register field
// and operand field without validating them.
func DecodeFields(class Class, data []byte) (op, op1, op2 uint32) {
	if !class.Valid() || len(data) < class.InstructionBytes {
		return
	}

	var word uint32
	for _, b := range data[:class.InstructionBytes] {
		word = word<<8 | uint32(b)
	}

	bits := fieldBits(class)
	op = word >> (bits + 6)
	op1 = (word >> bits) & 0x3f
	op2 = word & ((1 << bits) - 1)

	return
}

// Decode an instruction word.
func Decode(class Class, data []byte) (inst Instruction, err error) {
	if !class.Valid() {
		err = ErrWidthInvalid
		return
	}
	if len(data) < class.InstructionBytes {
		err = ErrInstructionShort
		return
	}

	op, op1, op2 := DecodeFields(class, data)

	var decoded Instruction
	decoded.Op = Opcode(op)
	decoded.Rd = int(op1)

	switch decoded.Op {
	case OP_NAND:
		decoded.Ra = int(op2 >> class.RegisterBits)
		decoded.Rb = int(op2 & ((1 << class.RegisterBits) - 1))
	case OP_LOAD, OP_STORE:
		decoded.Addr = op2
	}

	err = decoded.validate(class)
	if err != nil {
		return
	}

	inst = decoded
	return
}

// String returns the instruction in assembler syntax.
func (inst Instruction) String() string {
	switch inst.Op {
	case OP_NAND:
		return fmt.Sprintf("%v R%d, R%d, R%d", inst.Op, inst.Rd, inst.Ra, inst.Rb)
	case OP_LOAD, OP_STORE:
		return fmt.Sprintf("%v R%d, MEM%d", inst.Op, inst.Rd, inst.Addr)
	case OP_JUMP:
		return fmt.Sprintf("%v R%d", inst.Op, inst.Rd)
	}

	return inst.Op.String()
}
