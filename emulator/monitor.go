package emulator

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ezrec/nandvm/cpu"
)

const monitorHelp = `s, step [N]            run N instructions (default 1)
r, run                 run until halted
p, print               show the machine state
reg                    show the registers
mem ADDR [COUNT]       show COUNT memory words from ADDR
port ADDR [VALUE]      show, or set, a port
flush                  write memory to the image file
list                   disassemble the program
h, help                this text
q, quit                leave the monitor
`

// number parses a monitor argument.
func number(word string) (value uint32, err error) {
	v64, err := strconv.ParseUint(word, 0, 32)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCommandArgument, word)
		return
	}

	value = uint32(v64)
	return
}

// where shows the next instruction, or the halt reason.
func (emu *Emulator) where(out io.Writer) {
	if emu.Cpu.Halted != cpu.HALT_NONE {
		fmt.Fprintf(out, "Halted: %v\n", emu.Cpu.Halted.Reason())
		return
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Statement == nil || dbg.Instruction == nil {
		fmt.Fprintf(out, "%d:\n", emu.Cpu.Pc)
		return
	}

	fmt.Fprintf(out, "%d: line %d: %v\n", emu.Cpu.Pc, dbg.LineNo, *dbg.Instruction)
}

// Command runs one monitor command line, writing its output to out.
func (emu *Emulator) Command(line string, out io.Writer) (quit bool, err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	args := words[1:]
	switch strings.ToLower(words[0]) {
	case "s", "step":
		count := uint32(1)
		if len(args) > 0 {
			count, err = number(args[0])
			if err != nil {
				return
			}
		}
		for range count {
			var done bool
			done, err = emu.Tick()
			if err != nil || done {
				break
			}
		}
		emu.where(out)
	case "r", "run":
		err = emu.Run()
		emu.where(out)
	case "p", "print":
		fmt.Fprintf(out, "%v\n", emu.Cpu)
	case "reg":
		for n, value := range emu.Cpu.Register {
			fmt.Fprintf(out, "R%d = %d\n", n, value)
		}
	case "mem":
		if len(args) == 0 || len(args) > 2 {
			err = ErrCommandArgument
			return
		}
		var addr uint32
		addr, err = number(args[0])
		if err != nil {
			return
		}
		count := uint32(1)
		if len(args) > 1 {
			count, err = number(args[1])
			if err != nil {
				return
			}
		}
		for range count {
			var value uint32
			value, err = emu.Cpu.Memory.Read(addr)
			if err != nil {
				return
			}
			fmt.Fprintf(out, "MEM%d = %d\n", addr, value)
			addr += uint32(emu.Class.WordBytes)
		}
	case "port":
		if len(args) == 0 || len(args) > 2 {
			err = ErrCommandArgument
			return
		}
		var addr, value uint32
		addr, err = number(args[0])
		if err != nil {
			return
		}
		if len(args) > 1 {
			value, err = number(args[1])
			if err != nil {
				return
			}
			err = emu.Ports.Write(addr, value)
			return
		}
		value, err = emu.Ports.Read(addr)
		if err != nil {
			return
		}
		fmt.Fprintf(out, "PORT%d = %d\n", addr, value)
	case "flush":
		err = emu.Flush()
	case "list":
		err = emu.Program.Disassemble(out)
	case "h", "help", "?":
		fmt.Fprint(out, monitorHelp)
	case "q", "quit":
		quit = true
	default:
		err = ErrCommandInvalid(words[0])
	}

	return
}

// monitor reads command lines until quit or end of input.
func (emu *Emulator) monitor(readLine func() (string, error), out io.Writer, errout io.Writer) (err error) {
	for {
		line, rerr := readLine()
		if errors.Is(rerr, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		}
		if errors.Is(rerr, io.EOF) {
			return
		}
		if rerr != nil {
			err = rerr
			return
		}

		quit, cerr := emu.Command(line, out)
		if cerr != nil {
			fmt.Fprintf(errout, "%v\n", cerr)
		}
		if quit {
			return
		}
	}
}

// Monitor runs an interactive command loop on a readline instance.
func (emu *Emulator) Monitor(rl *readline.Instance) (err error) {
	emu.where(rl.Stdout())
	return emu.monitor(rl.Readline, rl.Stdout(), rl.Stderr())
}
