package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/nandvm/cpu"
	vmio "github.com/ezrec/nandvm/io"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("assembler: ")

	err := newCommand().Execute()
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func newCommand() (cmd *cobra.Command) {
	var width int
	var format string
	var defines []string
	var disassemble bool
	var verbose bool

	cmd = &cobra.Command{
		Use:   "assembler <input_asm_file> <output_binary_file>",
		Short: "Assemble NAND machine source",
		Long: `Assembles NAND machine source into an HDLb0 listing (four binary fields
per instruction) or a memory image (one decimal byte per line). With
--disassemble, reads a memory image and writes assembler source.
A file name of "-" is standard input or output.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			class, err := cpu.ClassOf(cpu.Width(width))
			if err != nil {
				return
			}

			var inf io.Reader = os.Stdin
			if args[0] != "-" {
				var file *os.File
				file, err = os.Open(args[0])
				if err != nil {
					return
				}
				defer file.Close()
				inf = file
			}

			var ouf io.Writer = os.Stdout
			if args[1] != "-" {
				var file *os.File
				file, err = os.Create(args[1])
				if err != nil {
					return
				}
				defer file.Close()
				ouf = file
			}

			if disassemble {
				var data []byte
				data, err = vmio.ReadImage(inf, class.MemorySize)
				if err != nil {
					return
				}
				return cpu.Disassemble(ouf, class, data)
			}

			asm := cpu.NewAssembler(class)
			asm.Verbose = verbose
			for _, define := range defines {
				name, value, _ := strings.Cut(define, "=")
				asm.Predefine(name, value)
			}

			prog, err := asm.Parse(inf)
			if err != nil {
				err = fmt.Errorf("%v: %w", args[0], err)
				return
			}

			switch format {
			case "hdlb0":
				err = prog.WriteHDLb0(ouf)
			case "image":
				err = prog.WriteImage(ouf)
			case "asm":
				err = prog.Disassemble(ouf)
			default:
				err = fmt.Errorf("unknown format %q", format)
			}

			return
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.IntVarP(&width, "width", "w", 8, "machine width in bits (2, 4, 8, 16 or 32)")
	flags.StringVarP(&format, "format", "f", "hdlb0", "output format: hdlb0, image or asm")
	flags.StringArrayVarP(&defines, "define", "D", nil, "NAME=VALUE equate")
	flags.BoolVar(&disassemble, "disassemble", false, "disassemble a memory image")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose mode")

	return
}
