// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ezrec/nandvm/cpu"
	"github.com/ezrec/nandvm/emulator"
	vmio "github.com/ezrec/nandvm/io"
)

type options struct {
	width       int
	format      string
	tape        string
	ports       string
	image       string
	resume      bool
	entry       uint32
	stopAtEnd   bool
	quietState  bool
	interactive bool
	defines     []string
	verbose     bool
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("vm: ")

	err := newCommand().Execute()
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func newCommand() (cmd *cobra.Command) {
	opts := &options{}

	cmd = &cobra.Command{
		Use:   "vm <input_memory_file> [output_trace_file] [max_steps]",
		Short: "Run a program on a NAND machine",
		Long: `Loads a memory image (one decimal byte per line), assembler source or an
HDLb0 listing and runs it, writing an execution trace to output_trace_file
(standard output if absent or "-"). Execution stops after max_steps
instructions (default 100).`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.IntVarP(&opts.width, "width", "w", 8, "machine width in bits (2, 4, 8, 16 or 32)")
	flags.StringVarP(&opts.format, "format", "f", "", "input format: image, asm or hdlb0 (default by file extension)")
	flags.StringVar(&opts.tape, "tape", "", "append tape output (writes to address 0) to this file")
	flags.StringVar(&opts.ports, "ports", "", "directory of port files for the top of memory")
	flags.StringVar(&opts.image, "image", "", "persist memory to this file when the machine halts")
	flags.BoolVar(&opts.resume, "resume", false, "restore memory from the --image file")
	flags.Uint32Var(&opts.entry, "entry", 0, "start address (default 0 for images, else the first instruction)")
	flags.BoolVar(&opts.stopAtEnd, "stop-at-end", false, "halt normally past the last instruction")
	flags.BoolVar(&opts.quietState, "quiet-state", false, "omit the state line from the trace")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "run the interactive monitor")
	flags.StringArrayVarP(&opts.defines, "define", "D", nil, "NAME=VALUE equate for assembler sources")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose mode")

	return
}

// inputFormat picks the loader for a file.
func (opts *options) inputFormat(path string) string {
	if len(opts.format) != 0 {
		return opts.format
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		return "asm"
	case ".hdl", ".hdlb0":
		return "hdlb0"
	}

	return "image"
}

// load reads the program file.
func (opts *options) load(class cpu.Class, path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	switch opts.inputFormat(path) {
	case "image":
		var data []byte
		data, err = vmio.ReadImage(inf, class.MemorySize)
		if err != nil {
			return
		}
		prog = cpu.ProgramFromImage(class, data)
	case "asm":
		asm := cpu.NewAssembler(class)
		asm.Verbose = opts.verbose
		for _, define := range opts.defines {
			name, value, _ := strings.Cut(define, "=")
			asm.Predefine(name, value)
		}
		prog, err = asm.Parse(inf)
	case "hdlb0":
		prog, err = cpu.ParseHDLb0(inf, class)
	default:
		err = fmt.Errorf("unknown format %q", opts.format)
	}

	return
}

func (opts *options) run(cmd *cobra.Command, args []string) (err error) {
	class, err := cpu.ClassOf(cpu.Width(opts.width))
	if err != nil {
		return
	}

	prog, err := opts.load(class, args[0])
	if err != nil {
		err = fmt.Errorf("%v: %w", args[0], err)
		return
	}

	emu := emulator.NewEmulator(class)
	emu.Verbose = opts.verbose
	emu.Program = prog
	emu.Cpu.StopAtEnd = opts.stopAtEnd

	if len(args) > 2 {
		emu.Cpu.MaxSteps, err = strconv.Atoi(args[2])
		if err != nil {
			err = fmt.Errorf("max_steps: %w", err)
			return
		}
	}

	var trace io.Writer = os.Stdout
	if len(args) > 1 && args[1] != "-" {
		var ouf *os.File
		ouf, err = os.Create(args[1])
		if err != nil {
			return
		}
		defer ouf.Close()
		trace = ouf
	}
	emu.Trace = emulator.NewTracer(trace)
	emu.Trace.State = !opts.quietState

	if len(opts.tape) != 0 {
		var tapef *os.File
		tapef, err = os.OpenFile(opts.tape, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return
		}
		defer tapef.Close()
		emu.Tape = &vmio.Tape{Output: tapef}
	}

	if len(opts.ports) != 0 {
		var portfs vmio.CreateFS
		portfs, err = vmio.SubOrMkdir(vmio.DirFS(filepath.Dir(opts.ports)), filepath.Base(opts.ports))
		if err != nil {
			err = fmt.Errorf("%v: %w", opts.ports, err)
			return
		}
		emu.Ports = &vmio.Ports{FS: portfs, Base: class.PortBase, Count: class.PortCount}
	}

	if len(opts.image) != 0 {
		emu.Image = &vmio.Image{FS: vmio.DirFS(filepath.Dir(opts.image)), Name: filepath.Base(opts.image)}
		emu.Resume = opts.resume
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	// Memory is persisted even when the run stops on an I/O failure.
	defer func() {
		cerr := emu.Close()
		if err == nil {
			err = cerr
		}
	}()

	if cmd.Flags().Changed("entry") {
		emu.Cpu.Pc = opts.entry
	}

	if opts.interactive {
		var rl *readline.Instance
		rl, err = readline.NewEx(&readline.Config{
			Prompt: "vm> ",
		})
		if err != nil {
			return
		}
		defer rl.Close()

		err = emu.Monitor(rl)
	} else {
		err = emu.Run()
	}

	return
}
