package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Tape is the append-only output channel at address 0.
// Every write appends one decimal value and a newline to Output; earlier
// values are never rewritten.
type Tape struct {
	Output io.Writer

	Count int    // Number of values appended.
	Last  uint32 // Most recently appended value.
}

// Append writes value to the end of the tape.
func (tape *Tape) Append(value uint32) (err error) {
	if tape.Output == nil {
		err = fmt.Errorf("%w: %v", ErrIoFailure, f("tape has no output"))
		return
	}

	_, err = fmt.Fprintf(tape.Output, "%d\n", value)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrIoFailure, err)
		return
	}

	tape.Count++
	tape.Last = value

	return
}

// ReadTape returns an iterator over the values of a tape file.
// The sequence is lazy and can only be consumed once; it stops at the
// first line that is not a decimal value.
func ReadTape(r io.Reader) iter.Seq[uint32] {
	return func(yield func(value uint32) bool) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			text := scanner.Text()
			if len(strings.TrimSpace(text)) == 0 {
				continue
			}
			value, err := parseValue(text)
			if err != nil {
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}
