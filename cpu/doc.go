// Package cpu implements the NAND machines and their assembler.
//
// A machine has one width class (2, 4, 8, 16 or 32 bits) that fixes its
// register bank, its byte memory and its instruction word. There are four
// instructions: NAND of two registers, LOAD and STORE between a register and
// memory, and JUMP to the instruction slot held in a register. Every cycle
// is bounded by a step cap, so every program halts.
//
// The assembler reads the mnemonic source, with labels, equates, .org,
// .data and compile-time $(...) expressions, into a Program that can be
// written as a memory image or as HDLb0 routing lines.
package cpu
