// Package io provides the memory-mapped devices of the NAND machine:
// the append-only output tape at address 0, port files standing in for
// device registers, and the persisted memory image. All of them are
// reached through the Bus interface.
package io

// Bus is the word-level access path used by LOAD and STORE.
type Bus interface {
	// Read returns the word stored at addr.
	Read(addr uint32) (value uint32, err error)
	// Write stores a word at addr.
	Write(addr uint32, value uint32) (err error)
}
