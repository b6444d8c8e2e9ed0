package cpu

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/ezrec/nandvm/internal"
)

// Width is the machine word size in bits.
type Width int

// Class is the fixed configuration of one machine width.
type Class struct {
	Width            Width
	Registers        int    // Size of the register bank.
	MemorySize       int    // Bytes of memory.
	InstructionBytes int    // Bytes per instruction word.
	WordBytes        int    // Bytes moved by LOAD and STORE.
	RegisterBits     int    // Bits needed to name a register.
	AddressBits      int    // Bits needed to name a memory byte.
	PortBase         uint32 // First memory-mapped port address.
	PortCount        int    // Number of port addresses.
	HDLb0Bits        int    // Characters per HDLb0 field.
}

var classes = map[Width]Class{
	2: {
		Width: 2, Registers: 4, MemorySize: 16,
		InstructionBytes: 2, WordBytes: 1, RegisterBits: 2, AddressBits: 4,
		PortBase: 12, PortCount: 4, HDLb0Bits: 16,
	},
	4: {
		Width: 4, Registers: 8, MemorySize: 64,
		InstructionBytes: 2, WordBytes: 1, RegisterBits: 3, AddressBits: 6,
		PortBase: 56, PortCount: 8, HDLb0Bits: 16,
	},
	8: {
		Width: 8, Registers: 16, MemorySize: 256,
		InstructionBytes: 2, WordBytes: 1, RegisterBits: 4, AddressBits: 8,
		PortBase: 240, PortCount: 16, HDLb0Bits: 16,
	},
	16: {
		Width: 16, Registers: 32, MemorySize: 65536,
		InstructionBytes: 4, WordBytes: 2, RegisterBits: 5, AddressBits: 16,
		PortBase: 65280, PortCount: 256, HDLb0Bits: 32,
	},
	32: {
		Width: 32, Registers: 32, MemorySize: 1048576,
		InstructionBytes: 4, WordBytes: 4, RegisterBits: 5, AddressBits: 20,
		PortBase: 1044480, PortCount: 4096, HDLb0Bits: 32,
	},
}

// Widths lists the supported machine widths, smallest first.
var Widths = []Width{2, 4, 8, 16, 32}

// ClassOf returns the configuration for a machine width.
func ClassOf(width Width) (class Class, err error) {
	class, ok := classes[width]
	if !ok {
		err = fmt.Errorf("%w: %d", ErrWidthInvalid, int(width))
		return
	}
	return
}

// ParseWidth parses a decimal machine width.
func ParseWidth(text string) (width Width, err error) {
	value, err := strconv.Atoi(text)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrWidthInvalid, text)
		return
	}

	width = Width(value)
	_, err = ClassOf(width)

	return
}

// Mask returns 2^width - 1.
func (width Width) Mask() uint32 {
	return uint32((uint64(1) << uint(width)) - 1)
}

// Mask returns the register value mask of the class.
func (class Class) Mask() uint32 {
	return class.Width.Mask()
}

// Valid is true for a class returned by ClassOf.
func (class Class) Valid() bool {
	return class.InstructionBytes != 0
}

// Defines returns the assembler defines describing the class.
func (class Class) Defines() iter.Seq2[string, string] {
	return internal.DefineSeq(
		"WIDTH", strconv.Itoa(int(class.Width)),
		"REGISTERS", strconv.Itoa(class.Registers),
		"MEMORY_SIZE", strconv.Itoa(class.MemorySize),
		"INSTRUCTION_BYTES", strconv.Itoa(class.InstructionBytes),
		"WORD_BYTES", strconv.Itoa(class.WordBytes),
		"PORT_BASE", strconv.FormatUint(uint64(class.PortBase), 10),
		"PORT_COUNT", strconv.Itoa(class.PortCount),
	)
}
