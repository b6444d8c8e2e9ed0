package cpu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(t, 8,
		".org 4",
		"NAND R0, R1, R2",
		"JUMP R3",
		".org 0",
		".data 1, 2, 3",
	)
	require.NoError(t, err)

	assert.Equal(uint32(4), prog.Entry())
	assert.Equal(uint32(8), prog.End())
	assert.Equal([]byte{1, 2, 3, 0, 0x00, 0x12, 0xc3, 0x00}, prog.Binary())

	dbg := prog.Debug(6)
	require.NotNil(t, dbg.Statement)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(0, dbg.Offset)

	dbg = prog.Debug(2)
	require.NotNil(t, dbg.Statement)
	assert.Equal(5, dbg.LineNo)
	assert.Equal(2, dbg.Offset)
	assert.Nil(dbg.Instruction)

	dbg = prog.Debug(3)
	assert.Nil(dbg.Statement)

	var empty Program
	assert.Equal(uint32(0), empty.Entry())
	assert.Equal(uint32(0), empty.End())
	assert.Len(empty.Binary(), 0)
}

func TestProgram_WriteImage(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(t, 8, "LOAD R1, MEM200", ".data 7")
	require.NoError(t, err)

	buff := &bytes.Buffer{}
	assert.NoError(prog.WriteImage(buff))
	assert.Equal("65\n200\n7\n", buff.String())

	buff.Reset()
	assert.NoError(prog.WriteHDLb0(buff))
	assert.Equal("0000000000000000 0000000000010001 0000000011101000 0000000000000011 # LOAD R1, MEM200\n",
		buff.String())
}

func TestProgramFromImage(t *testing.T) {
	assert := assert.New(t)

	class := mustClass(t, 8)

	image := []byte{0x40, 0x00, 0x10, 0x00, 0xc1, 0x00, 0, 0, 0, 0}
	prog := ProgramFromImage(class, image)
	require.Len(t, prog.Statements, 3)

	assert.Equal(MakeLoad(0, 0), *prog.Statements[0].Instruction)
	assert.Equal(1, prog.Statements[0].LineNo)
	assert.Equal([]string{"LOAD", "R0,", "MEM0"}, prog.Statements[0].Words)

	// R16 does not decode.
	assert.Nil(prog.Statements[1].Instruction)
	assert.Equal([]byte{0x10, 0x00}, prog.Statements[1].Data)
	assert.Equal(3, prog.Statements[1].LineNo)

	assert.Equal(MakeJump(1), *prog.Statements[2].Instruction)
	assert.Equal(uint32(6), prog.End())

	// Odd length images keep their last byte.
	prog = ProgramFromImage(class, []byte{0xc0, 0x00, 0x05})
	require.Len(t, prog.Statements, 2)
	assert.Equal([]byte{0x05}, prog.Statements[1].Data)

	prog = ProgramFromImage(Class{}, image)
	assert.Len(prog.Statements, 0)
}

func TestProgramFromImage_Entry(t *testing.T) {
	assert := assert.New(t)

	class := mustClass(t, 8)

	// Data ahead of code still runs from address 0.
	prog := ProgramFromImage(class, []byte{0xff, 0x0f, 0x40, 0x00})
	require.Len(t, prog.Statements, 2)
	assert.Nil(prog.Statements[0].Instruction)
	assert.Equal(uint32(0), prog.Entry())

	cpu := NewCpu(class)
	cpu.Load(prog.Binary())
	require.NoError(t, cpu.Reset(prog.Entry()))
	step, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint32(0), step.Pc)
	assert.Equal(HALT_INVALID_OPERAND, step.Halt)

	// Assembled programs start at their first instruction.
	prog, err = assemble(t, 8, ".data 0xff, 0x0f", "LOAD R0, MEM0")
	require.NoError(t, err)
	assert.Equal(uint32(2), prog.Entry())
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(t, 8,
		".org 4",
		"NAND R0, R1, R2",
		".data 9",
		".org 10",
		"JUMP R3",
	)
	require.NoError(t, err)

	buff := &bytes.Buffer{}
	assert.NoError(prog.Disassemble(buff))
	assert.Equal(
		".org 4\n"+
			"NAND R0, R1, R2          # 4\n"+
			".data 9                  # 6\n"+
			".org 10\n"+
			"JUMP R3                  # 10\n",
		buff.String())
}
