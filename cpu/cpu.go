package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"strconv"
	"strings"

	"github.com/ezrec/nandvm/internal"
	"github.com/ezrec/nandvm/io"
)

// DEFAULT_MAX_STEPS is the step cap used when none is configured.
const DEFAULT_MAX_STEPS = 100

// Halt is the terminal condition of a machine.
type Halt int

//go:generate go tool stringer -linecomment -type=Halt
const (
	HALT_NONE            = Halt(0) // running
	HALT_NORMAL          = Halt(1) // normal
	HALT_OUT_OF_BOUNDS   = Halt(2) // out-of-bounds
	HALT_STEP_LIMIT      = Halt(3) // step-limit
	HALT_INVALID_OPERAND = Halt(4) // invalid-operand
)

// Reason returns the report text of the halt.
func (halt Halt) Reason() string {
	switch halt {
	case HALT_NORMAL:
		return "End of program"
	case HALT_OUT_OF_BOUNDS:
		return "PC out of bounds"
	case HALT_STEP_LIMIT:
		return "Possible infinite loop"
	case HALT_INVALID_OPERAND:
		return "Invalid operand"
	}

	return halt.String()
}

// Step records one machine cycle.
type Step struct {
	Pc          uint32      // Address of the instruction.
	Fetched     bool        // Op, Op1 and Op2 hold the raw instruction fields.
	Op          uint32      // Raw opcode field.
	Op1         uint32      // Raw register field.
	Op2         uint32      // Raw operand field.
	Executed    bool        // Instruction was executed.
	Instruction Instruction // Decoded instruction.
	NextPc      uint32      // Address of the next instruction.
	Halt        Halt        // Halt entered by this step, if any.
	Fault       error       // Cause of an invalid operand halt, or of an I/O failure.
}

// Cpu is a NAND machine of a single width class.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Class   Class
	*Memory        // Register bank and memory.
	Bus     io.Bus // Target of LOAD and STORE. Memory if nil.

	Pc        uint32 // Program counter.
	Steps     int    // Cycles executed since reset.
	MaxSteps  int    // Step cap, DEFAULT_MAX_STEPS if zero or less.
	End       uint32 // End of program, for StopAtEnd.
	StopAtEnd bool   // Halt normally when Pc reaches End.
	Halted    Halt   // Terminal condition, HALT_NONE while running.
}

// NewCpu creates a machine of the class.
func NewCpu(class Class) (cpu *Cpu) {
	cpu = &Cpu{
		Class:  class,
		Memory: NewMemory(class),
	}

	return
}

// Defines for the cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		cpu.Class.Defines(),
		internal.DefineSeq("MAX_STEPS", strconv.Itoa(cpu.maxSteps())),
	)
}

// maxSteps returns the effective step cap.
func (cpu *Cpu) maxSteps() int {
	if cpu.MaxSteps <= 0 {
		return DEFAULT_MAX_STEPS
	}
	return cpu.MaxSteps
}

// bus returns the LOAD and STORE target.
func (cpu *Cpu) bus() io.Bus {
	if cpu.Bus == nil {
		return cpu.Memory
	}
	return cpu.Bus
}

// Reset the CPU state.
//   - Zeros the registers; memory is left as loaded.
//   - Zeros the step counter and clears any halt.
//   - Sets the program counter to entry.
func (cpu *Cpu) Reset(entry uint32) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset, entry %d", entry)
	}

	clear(cpu.Register)
	cpu.Pc = entry
	cpu.Steps = 0
	cpu.Halted = HALT_NONE

	return
}

// halt enters a terminal state.
func (cpu *Cpu) halt(step *Step, halt Halt, fault error) {
	cpu.Halted = halt
	step.Halt = halt
	step.Fault = fault

	if cpu.Verbose {
		log.Printf("cpu: %d: halt %v %v", cpu.Pc, halt, fault)
	}
}

// Tick runs one fetch, decode, execute and advance cycle.
// A halted machine is not changed. The error is only set on an I/O failure
// of the bus, which leaves the machine at the failing instruction.
func (cpu *Cpu) Tick() (step Step, err error) {
	step.Pc = cpu.Pc
	step.NextPc = cpu.Pc

	if cpu.Halted != HALT_NONE {
		step.Halt = cpu.Halted
		return
	}

	if cpu.Steps >= cpu.maxSteps() {
		cpu.halt(&step, HALT_STEP_LIMIT, nil)
		return
	}

	if cpu.StopAtEnd && cpu.Pc >= cpu.End {
		cpu.halt(&step, HALT_NORMAL, nil)
		return
	}

	// Fetch
	data, err := cpu.Memory.Fetch(cpu.Pc)
	if err != nil {
		err = nil
		cpu.halt(&step, HALT_OUT_OF_BOUNDS, nil)
		return
	}
	step.Fetched = true
	step.Op, step.Op1, step.Op2 = DecodeFields(cpu.Class, data)

	// Decode
	inst, err := Decode(cpu.Class, data)
	if err != nil {
		cpu.halt(&step, HALT_INVALID_OPERAND, err)
		err = nil
		return
	}
	step.Instruction = inst

	if cpu.Verbose {
		log.Printf("cpu: %d: %v", cpu.Pc, inst)
	}

	// Execute
	next := cpu.Pc + uint32(cpu.Class.InstructionBytes)
	reg := cpu.Register
	switch inst.Op {
	case OP_NAND:
		reg[inst.Rd] = Nand(reg[inst.Ra], reg[inst.Rb], cpu.Class.Width)
	case OP_LOAD:
		var value uint32
		value, err = cpu.bus().Read(inst.Addr)
		if err == nil {
			reg[inst.Rd] = value & cpu.Class.Mask()
		}
	case OP_STORE:
		err = cpu.bus().Write(inst.Addr, reg[inst.Rd])
	case OP_JUMP:
		target := uint64(reg[inst.Rd]) * uint64(cpu.Class.InstructionBytes)
		next = uint32(target % uint64(cpu.Class.MemorySize))
	}

	if err != nil {
		if errors.Is(err, ErrOperandRange) {
			cpu.halt(&step, HALT_INVALID_OPERAND, err)
			err = nil
			return
		}
		step.Fault = err
		err = fmt.Errorf("%v %v: %w", cpu.Pc, inst, err)
		return
	}

	// Advance
	cpu.Pc = next
	cpu.Steps++

	step.Executed = true
	step.NextPc = next

	return
}

// Run ticks the machine until it halts.
func (cpu *Cpu) Run() (err error) {
	for cpu.Halted == HALT_NONE {
		_, err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// String returns the state line of the machine.
func (cpu *Cpu) String() string {
	regs := make([]string, len(cpu.Register))
	for n, value := range cpu.Register {
		regs[n] = strconv.FormatUint(uint64(value), 10)
	}

	var mem0 byte
	if len(cpu.Image) > 0 {
		mem0 = cpu.Image[0]
	}

	return fmt.Sprintf("PC: %d, REG: [%v], MEM[0]: %d", cpu.Pc, strings.Join(regs, ","), mem0)
}
