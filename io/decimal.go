package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadImage reads a memory image of at most size bytes, one decimal value
// per line. Values on the same line separated by whitespace are accepted.
// Values past size are ignored; a short file leaves the tail zero.
func ReadImage(r io.Reader, size int) (data []byte, err error) {
	data = make([]byte, size)

	scanner := bufio.NewScanner(r)
	var lineno int
	var n int
	for scanner.Scan() && n < size {
		lineno++
		for _, word := range strings.Fields(scanner.Text()) {
			if n >= size {
				break
			}
			var value uint64
			value, err = strconv.ParseUint(word, 10, 8)
			if err != nil {
				err = &ErrImageFormat{LineNo: lineno, Text: word}
				return
			}
			data[n] = byte(value)
			n++
		}
	}

	err = scanner.Err()
	return
}

// WriteImage writes a memory image, one decimal value per line.
func WriteImage(w io.Writer, data []byte) (err error) {
	bw := bufio.NewWriter(w)
	for _, value := range data {
		_, err = fmt.Fprintf(bw, "%d\n", value)
		if err != nil {
			return
		}
	}

	return bw.Flush()
}

// parseValue parses the single decimal value held by a port or tape line.
func parseValue(text string) (value uint32, err error) {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return
	}

	v64, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		err = ErrPortValue
		return
	}

	value = uint32(v64)
	return
}
