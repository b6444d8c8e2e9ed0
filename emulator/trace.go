package emulator

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/nandvm/cpu"
)

// Tracer writes a text trace of each machine step:
//
//	EXEC: opcode=0, op1=1, op2=18
//	NAND r1, r2 -> r1
//	PC: 2, REG: [0,3,0,0], MEM[0]: 1
//
// followed by an "Error:" line on a fault and a "Halted:" line at the end.
type Tracer struct {
	W     io.Writer
	State bool // Write the state line after each executed instruction.
}

// NewTracer creates a tracer writing state lines to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{W: w, State: true}
}

// Step writes the trace of one step; state is the machine after the step.
func (tr *Tracer) Step(state fmt.Stringer, step cpu.Step) (err error) {
	var sb strings.Builder

	if step.Fetched {
		fmt.Fprintf(&sb, "EXEC: opcode=%d, op1=%d, op2=%d\n", step.Op, step.Op1, step.Op2)
	}

	if step.Executed {
		inst := step.Instruction
		switch inst.Op {
		case cpu.OP_NAND:
			fmt.Fprintf(&sb, "NAND r%d, r%d -> r%d\n", inst.Ra, inst.Rb, inst.Rd)
		case cpu.OP_LOAD:
			fmt.Fprintf(&sb, "LOAD r%d, mem[%d]\n", inst.Rd, inst.Addr)
		case cpu.OP_STORE:
			fmt.Fprintf(&sb, "STORE r%d, mem[%d]\n", inst.Rd, inst.Addr)
		case cpu.OP_JUMP:
			fmt.Fprintf(&sb, "JUMP r%d -> PC=%d\n", inst.Rd, step.NextPc)
		}
		if tr.State {
			fmt.Fprintf(&sb, "%v\n", state)
		}
	}

	if step.Fault != nil {
		fmt.Fprintf(&sb, "Error: %v\n", step.Fault)
	}

	if step.Halt != cpu.HALT_NONE {
		fmt.Fprintf(&sb, "Halted: %v\n", step.Halt.Reason())
	}

	if sb.Len() == 0 {
		return
	}

	_, err = io.WriteString(tr.W, sb.String())

	return
}
