package io

import (
	"fmt"
	"iter"
	"log"

	"github.com/ezrec/nandvm/internal"
)

// TAPE_ADDRESS is the address of the output tape.
const TAPE_ADDRESS = uint32(0)

// Mapper overlays the memory-mapped devices on a backing memory bus.
//
//   - Writes to TAPE_ADDRESS append to Tape; reads fall through to Memory.
//   - Addresses inside the Ports window go to the port files.
//   - Everything else is Memory; writes mark Image dirty.
//
// A nil Tape, Ports or Image leaves its addresses as plain memory.
type Mapper struct {
	Verbose bool

	Memory Bus
	Tape   *Tape
	Ports  *Ports
	Image  *Image
}

var _ Bus = (*Mapper)(nil)

// Defines returns an iter of defines for the mapped devices.
func (mm *Mapper) Defines() iter.Seq2[string, string] {
	pairs := []string{"TAPE", fmt.Sprintf("%d", TAPE_ADDRESS)}
	if mm.Ports != nil {
		pairs = append(pairs,
			"PORT_BASE", fmt.Sprintf("%d", mm.Ports.Base),
			"PORT_LIMIT", fmt.Sprintf("%d", uint64(mm.Ports.Base)+uint64(mm.Ports.Count)),
		)
	}
	return internal.DefineSeq(pairs...)
}

// Read a word through the device map.
func (mm *Mapper) Read(addr uint32) (value uint32, err error) {
	if mm.Ports.Contains(addr) {
		value, err = mm.Ports.Read(addr)
		mm.logf("port %d -> %d", addr, value)
		return
	}

	return mm.Memory.Read(addr)
}

// Write a word through the device map.
func (mm *Mapper) Write(addr uint32, value uint32) (err error) {
	switch {
	case addr == TAPE_ADDRESS && mm.Tape != nil:
		mm.logf("tape <- %d", value)
		return mm.Tape.Append(value)
	case mm.Ports.Contains(addr):
		mm.logf("port %d <- %d", addr, value)
		return mm.Ports.Write(addr, value)
	}

	err = mm.Memory.Write(addr, value)
	if err != nil {
		return
	}

	mm.Image.MarkDirty()

	return
}

// Flush persists memory to the image, if one is configured.
func (mm *Mapper) Flush(data []byte) (err error) {
	if !mm.Image.Configured() {
		return
	}

	mm.logf("image flush %d bytes", len(data))
	return mm.Image.Flush(data)
}

func (mm *Mapper) logf(format string, args ...any) {
	if mm.Verbose {
		log.Printf("io: "+format, args...)
	}
}
