package cpu

import (
	"github.com/ezrec/nandvm/io"
)

// Memory is the register bank and byte memory of one machine.
type Memory struct {
	Class    Class
	Register []uint32 // Register bank, each value masked to the width.
	Image    []byte   // Byte addressed memory.
}

var _ io.Bus = (*Memory)(nil)

// NewMemory creates a zeroed memory for the class.
func NewMemory(class Class) (mem *Memory) {
	mem = &Memory{
		Class:    class,
		Register: make([]uint32, class.Registers),
		Image:    make([]byte, class.MemorySize),
	}

	return
}

// Reset zeros the registers and memory.
func (mem *Memory) Reset() {
	clear(mem.Register)
	clear(mem.Image)
}

// Load replaces memory with data, zero filling the remainder.
// Data past the end of memory is dropped.
func (mem *Memory) Load(data []byte) {
	clear(mem.Image)
	copy(mem.Image, data)
}

// Reg returns the value of register n.
func (mem *Memory) Reg(n int) (value uint32, err error) {
	err = checkRegister(mem.Class, "register", n)
	if err != nil {
		return
	}

	value = mem.Register[n]
	return
}

// SetReg sets register n, masked to the width.
func (mem *Memory) SetReg(n int, value uint32) (err error) {
	err = checkRegister(mem.Class, "register", n)
	if err != nil {
		return
	}

	mem.Register[n] = value & mem.Class.Mask()
	return
}

// Read a big-endian word from memory.
func (mem *Memory) Read(addr uint32) (value uint32, err error) {
	err = checkAddress(mem.Class, addr)
	if err != nil {
		return
	}

	for _, b := range mem.Image[addr : addr+uint32(mem.Class.WordBytes)] {
		value = value<<8 | uint32(b)
	}

	return
}

// Write a big-endian word to memory.
func (mem *Memory) Write(addr uint32, value uint32) (err error) {
	err = checkAddress(mem.Class, addr)
	if err != nil {
		return
	}

	word := mem.Image[addr : addr+uint32(mem.Class.WordBytes)]
	for n := range word {
		word[n] = byte(value >> (8 * (len(word) - 1 - n)))
	}

	return
}

// Fetch returns the instruction word at pc.
func (mem *Memory) Fetch(pc uint32) (data []byte, err error) {
	size := uint64(mem.Class.InstructionBytes)
	if uint64(pc)+size > uint64(len(mem.Image)) {
		err = &ErrOperand{Field: "pc", Value: pc}
		return
	}

	data = mem.Image[pc : uint64(pc)+size]
	return
}
