// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"io/fs"
	"iter"

	"github.com/ezrec/nandvm/cpu"
	"github.com/ezrec/nandvm/internal"
	vmio "github.com/ezrec/nandvm/io"
)

// Emulator state. CPU + memory-mapped devices + trace.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Tape   *vmio.Tape  // Output tape at address 0, if any.
	Ports  *vmio.Ports // Port files, if any.
	Image  *vmio.Image // Persisted memory image, if any.
	Resume bool        // Restore memory from Image on Reset.
	Trace  *Tracer     // Step trace, if any.

	mapper vmio.Mapper
}

// NewEmulator creates a new emulator for a machine class.
func NewEmulator(class cpu.Class) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(class),
		Program: &cpu.Program{Class: class},
	}

	return
}

// wire points the device map at the current devices.
func (emu *Emulator) wire() {
	emu.mapper = vmio.Mapper{
		Verbose: emu.Verbose,
		Memory:  emu.Cpu.Memory,
		Tape:    emu.Tape,
		Ports:   emu.Ports,
		Image:   emu.Image,
	}
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	emu.wire()
	return internal.IterSeq2Concat(
		emu.Cpu.Defines(),
		emu.mapper.Defines(),
	)
}

// Close the emulator, flushing the memory image.
func (emu *Emulator) Close() (err error) {
	return emu.Flush()
}

// Reset loads the program and prepares to run it from its entry point.
// With Resume set, memory is restored from Image instead; a missing image
// file leaves the program image in place.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Load(emu.Program.Binary())

	emu.wire()
	emu.Cpu.Bus = &emu.mapper

	if emu.Resume && emu.Image.Configured() {
		err = emu.Image.Load(emu.Cpu.Image)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
			emu.Image.MarkDirty()
		}
		if err != nil {
			return
		}
	} else {
		emu.Image.MarkDirty()
	}

	err = emu.Cpu.Reset(emu.Program.Entry())
	if err != nil {
		return
	}
	emu.Cpu.End = emu.Program.End()

	return
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
// done is set once the machine has halted; the memory image is flushed
// at that point.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.mapper.Verbose = emu.Verbose

	if emu.Cpu.Halted != cpu.HALT_NONE {
		done = true
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	step, err := emu.Cpu.Tick()
	if emu.Trace != nil {
		terr := emu.Trace.Step(emu.Cpu, step)
		if err == nil {
			err = terr
		}
	}
	if err != nil {
		return
	}

	if step.Halt != cpu.HALT_NONE {
		done = true
		err = emu.Flush()
	}

	return
}

// Run ticks the emulator until the machine halts.
func (emu *Emulator) Run() (err error) {
	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Flush writes memory to the persisted image, if it changed.
func (emu *Emulator) Flush() (err error) {
	return emu.mapper.Flush(emu.Cpu.Image)
}
