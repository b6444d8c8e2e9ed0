package cpu

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	vmio "github.com/ezrec/nandvm/io"
)

// Statement is an assembled source line.
type Statement struct {
	LineNo      int
	Pc          uint32       // Address of the first byte.
	Words       []string     // Source words, after expansion.
	Instruction *Instruction // nil for .data
	Data        []byte       // Bytes placed at Pc.
}

// Program is an assembled listing.
type Program struct {
	Class      Class
	Statements []Statement
	Raw        bool // Recovered from a memory image; execution starts at address 0.
}

// Debug locates the statement covering an address.
type Debug struct {
	*Statement
	Offset int
}

// Debug returns the statement that placed the byte at pc.
func (prog *Program) Debug(pc uint32) (dbg Debug) {
	for n, stmt := range prog.Statements {
		if pc >= stmt.Pc && uint64(pc) < uint64(stmt.Pc)+uint64(len(stmt.Data)) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Offset:    int(pc - stmt.Pc),
			}
			break
		}
	}

	return
}

// Binary returns the memory image of the program, up to the last byte placed.
func (prog *Program) Binary() (data []byte) {
	var size uint64
	for _, stmt := range prog.Statements {
		size = max(size, uint64(stmt.Pc)+uint64(len(stmt.Data)))
	}

	data = make([]byte, size)
	for _, stmt := range prog.Statements {
		copy(data[stmt.Pc:], stmt.Data)
	}

	return
}

// Instructions returns an iterator over the instructions and their addresses.
func (prog *Program) Instructions() iter.Seq2[uint32, Instruction] {
	return func(yield func(pc uint32, inst Instruction) bool) {
		for _, stmt := range prog.Statements {
			if stmt.Instruction == nil {
				continue
			}
			if !yield(stmt.Pc, *stmt.Instruction) {
				return
			}
		}
	}
}

// Entry returns the address of the first instruction.
// A raw memory image always starts at address 0.
func (prog *Program) Entry() (pc uint32) {
	if prog.Raw {
		return
	}

	for pc = range prog.Instructions() {
		break
	}

	return
}

// End returns the address following the highest instruction.
func (prog *Program) End() (pc uint32) {
	for at := range prog.Instructions() {
		pc = max(pc, at+uint32(prog.Class.InstructionBytes))
	}

	return
}

// WriteImage writes the memory image, one decimal byte per line.
func (prog *Program) WriteImage(w io.Writer) (err error) {
	return vmio.WriteImage(w, prog.Binary())
}

// WriteHDLb0 writes the instructions as HDLb0 lines.
func (prog *Program) WriteHDLb0(w io.Writer) (err error) {
	var insts []Instruction
	for _, inst := range prog.Instructions() {
		insts = append(insts, inst)
	}

	return WriteHDLb0(w, prog.Class, insts...)
}

// Disassemble writes the program as assembler source.
func (prog *Program) Disassemble(w io.Writer) (err error) {
	bw := bufio.NewWriter(w)

	stmts := slices.Clone(prog.Statements)
	slices.SortStableFunc(stmts, func(a, b Statement) int {
		return cmp.Compare(a.Pc, b.Pc)
	})

	var pc uint32
	for _, stmt := range stmts {
		if stmt.Pc != pc {
			fmt.Fprintf(bw, ".org %d\n", stmt.Pc)
		}

		var text string
		if stmt.Instruction != nil {
			text = stmt.Instruction.String()
		} else {
			values := make([]string, len(stmt.Data))
			for n, value := range stmt.Data {
				values[n] = fmt.Sprintf("%d", value)
			}
			text = ".data " + strings.Join(values, ", ")
		}

		fmt.Fprintf(bw, "%-24s # %d\n", text, stmt.Pc)
		pc = stmt.Pc + uint32(len(stmt.Data))
	}

	return bw.Flush()
}

// ProgramFromImage recovers a program listing from a memory image.
// Every aligned word is decoded; words that do not decode become data.
// Trailing zero words are dropped.
func ProgramFromImage(class Class, image []byte) (prog *Program) {
	prog = &Program{Class: class, Raw: true}
	if !class.Valid() {
		return
	}

	size := class.InstructionBytes
	end := len(image)
	for end > 0 && image[end-1] == 0 {
		end--
	}

	for at := 0; at < end; at += size {
		data := slices.Clone(image[at:min(at+size, len(image))])
		stmt := Statement{
			LineNo: at + 1,
			Pc:     uint32(at),
			Data:   data,
		}

		inst, err := Decode(class, data)
		if err == nil {
			stmt.Instruction = &inst
			stmt.Words = strings.Fields(inst.String())
		}

		prog.Statements = append(prog.Statements, stmt)
	}

	return
}

// Disassemble writes assembler source for a memory image.
func Disassemble(w io.Writer, class Class, image []byte) (err error) {
	return ProgramFromImage(class, image).Disassemble(w)
}
