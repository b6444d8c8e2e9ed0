package emulator

import (
	"bytes"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/nandvm/cpu"
	vmio "github.com/ezrec/nandvm/io"
)

func newEmulator(t *testing.T, width cpu.Width, program ...string) (emu *Emulator) {
	class, err := cpu.ClassOf(width)
	require.NoError(t, err)

	asm := cpu.NewAssembler(class)
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	emu = NewEmulator(class)
	emu.Program = prog

	return
}

// Copies MEM0 to MEM1 inverted, then jumps into the data.
var loopProgram = []string{
	".org 4",
	"LOAD R0, MEM0",
	"NAND R1, R0, R0",
	"STORE R1, MEM1",
	"JUMP R3",
	".org 0",
	".data 2",
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	class, err := cpu.ClassOf(8)
	require.NoError(t, err)

	emu := NewEmulator(class)
	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(class, emu.Program.Class)

	defs := maps.Collect(emu.Defines())
	assert.Equal("8", defs["WIDTH"])
	assert.Equal("100", defs["MAX_STEPS"])
	assert.Equal("0", defs["TAPE"])
	_, ok := defs["PORT_LIMIT"]
	assert.False(ok)

	emu.Ports = &vmio.Ports{FS: vmio.DirFS(t.TempDir()), Base: class.PortBase, Count: class.PortCount}
	defs = maps.Collect(emu.Defines())
	assert.Equal("256", defs["PORT_LIMIT"])
}

func TestEmulator_Trace(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, 2, loopProgram...)
	emu.Cpu.MaxSteps = 4

	trace := &bytes.Buffer{}
	emu.Trace = NewTracer(trace)

	require.NoError(t, emu.Reset())
	assert.Equal(uint32(4), emu.Cpu.Pc)
	assert.Equal(2, emu.LineNo())

	assert.NoError(emu.Run())
	assert.Equal(cpu.HALT_STEP_LIMIT, emu.Cpu.Halted)

	expected := strings.Join([]string{
		"EXEC: opcode=1, op1=0, op2=0",
		"LOAD r0, mem[0]",
		"PC: 6, REG: [2,0,0,0], MEM[0]: 2",
		"EXEC: opcode=0, op1=1, op2=0",
		"NAND r0, r0 -> r1",
		"PC: 8, REG: [2,1,0,0], MEM[0]: 2",
		"EXEC: opcode=2, op1=1, op2=1",
		"STORE r1, mem[1]",
		"PC: 10, REG: [2,1,0,0], MEM[0]: 2",
		"EXEC: opcode=3, op1=3, op2=0",
		"JUMP r3 -> PC=0",
		"PC: 0, REG: [2,1,0,0], MEM[0]: 2",
		"Halted: Possible infinite loop",
		"",
	}, "\n")
	assert.Equal(expected, trace.String())

	// Done stays done.
	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(expected, trace.String())
}

func TestEmulator_QuietTrace(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, 8, "NAND R0, R0, R0")
	emu.Cpu.StopAtEnd = true

	trace := &bytes.Buffer{}
	emu.Trace = NewTracer(trace)
	emu.Trace.State = false

	require.NoError(t, emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(cpu.HALT_NORMAL, emu.Cpu.Halted)
	assert.Equal("EXEC: opcode=0, op1=0, op2=0\nNAND r0, r0 -> r0\nHalted: End of program\n",
		trace.String())
}

func TestEmulator_Devices(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, 8,
		".org 16",
		"LOAD R0, MEM0",
		"LOAD R1, MEM1",
		"NAND R0, R0, R1",
		"STORE R0, MEM2",
		"STORE R0, MEM0",
		"LOAD R2, MEM$(PORT_BASE)",
		"STORE R2, MEM$(PORT_BASE + 1)",
		".org 0",
		".data 255, 15",
	)
	emu.Cpu.StopAtEnd = true

	dir := t.TempDir()
	portDir := filepath.Join(dir, "ports")
	require.NoError(t, os.Mkdir(portDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(portDir, "240.txt"), []byte("42\n"), 0644))

	tape := &bytes.Buffer{}
	emu.Tape = &vmio.Tape{Output: tape}
	emu.Ports = &vmio.Ports{FS: vmio.DirFS(portDir), Base: emu.Class.PortBase, Count: emu.Class.PortCount}
	emu.Image = &vmio.Image{FS: vmio.DirFS(dir), Name: "ram.txt"}

	require.NoError(t, emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(cpu.HALT_NORMAL, emu.Cpu.Halted)

	assert.Equal("240\n", tape.String())
	assert.Equal(byte(255), emu.Cpu.Image[0])
	assert.Equal(byte(0xf0), emu.Cpu.Image[2])
	assert.Equal(uint32(42), emu.Cpu.Register[2])

	port, err := os.ReadFile(filepath.Join(portDir, "241.txt"))
	assert.NoError(err)
	assert.Equal("42", string(port))

	file, err := os.Open(filepath.Join(dir, "ram.txt"))
	require.NoError(t, err)
	defer file.Close()
	image, err := vmio.ReadImage(file, emu.Class.MemorySize)
	assert.NoError(err)
	assert.Equal(emu.Cpu.Image, image)
	assert.False(emu.Image.Dirty())
}

func TestEmulator_Resume(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	emu := newEmulator(t, 4, "LOAD R1, MEM10", "STORE R1, MEM11")
	emu.Cpu.StopAtEnd = true
	emu.Image = &vmio.Image{FS: vmio.DirFS(dir), Name: "ram.txt"}
	emu.Resume = true

	// Missing image: start from the program.
	require.NoError(t, emu.Reset())
	assert.True(emu.Image.Dirty())
	emu.Cpu.Image[10] = 5
	assert.NoError(emu.Run())
	assert.Equal(byte(5), emu.Cpu.Image[11])

	// The next run picks up where the last left off.
	emu.Cpu.Image[11] = 0
	require.NoError(t, emu.Reset())
	assert.Equal(byte(5), emu.Cpu.Image[10])
	assert.Equal(byte(5), emu.Cpu.Image[11])
	assert.False(emu.Image.Dirty())

	// Without Resume, the program image wins.
	emu.Resume = false
	require.NoError(t, emu.Reset())
	assert.Equal(byte(0), emu.Cpu.Image[10])
}

type failWriter struct{}

func (failWriter) Write(data []byte) (n int, err error) {
	err = errors.New("disk on fire")
	return
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, 8, "NAND R0, R0, R0", "STORE R0, MEM0")
	emu.Tape = &vmio.Tape{Output: failWriter{}}

	trace := &bytes.Buffer{}
	emu.Trace = NewTracer(trace)

	require.NoError(t, emu.Reset())
	err := emu.Run()
	assert.ErrorIs(err, vmio.ErrIoFailure)

	var rerr *ErrRuntime
	if assert.ErrorAs(err, &rerr) {
		assert.Equal(2, rerr.LineNo)
	}

	assert.Equal(cpu.HALT_NONE, emu.Cpu.Halted)
	assert.Equal(uint32(2), emu.Cpu.Pc)
	assert.Contains(trace.String(), "EXEC: opcode=2, op1=0, op2=0\nError: ")
}

func TestEmulator_InvalidOperand(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, 8, ".data 0x10, 0")

	trace := &bytes.Buffer{}
	emu.Trace = NewTracer(trace)

	require.NoError(t, emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(cpu.HALT_INVALID_OPERAND, emu.Cpu.Halted)

	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal("EXEC: opcode=0, op1=16, op2=0", lines[0])
	assert.True(strings.HasPrefix(lines[1], "Error: "), lines[1])
	assert.Equal("Halted: Invalid operand", lines[2])
}
