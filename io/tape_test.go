package io

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTape_Append(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	tape := &Tape{Output: out}

	assert.NoError(tape.Append(1))
	assert.NoError(tape.Append(0))
	assert.NoError(tape.Append(255))

	assert.Equal("1\n0\n255\n", out.String())
	assert.Equal(3, tape.Count)
	assert.Equal(uint32(255), tape.Last)
}

func TestTape_AppendNoOutput(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	err := tape.Append(1)
	assert.ErrorIs(err, ErrIoFailure)
	assert.Equal(0, tape.Count)
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTape_AppendFailure(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Output: failWriter{}}
	err := tape.Append(7)
	assert.ErrorIs(err, ErrIoFailure)
	assert.Contains(err.Error(), "disk full")
}

func TestReadTape(t *testing.T) {
	assert := assert.New(t)

	values := slices.Collect(ReadTape(strings.NewReader("1\n\n2\n  3 \n")))
	assert.Equal([]uint32{1, 2, 3}, values)

	// Stops at garbage.
	values = slices.Collect(ReadTape(strings.NewReader("4\nfive\n6\n")))
	assert.Equal([]uint32{4}, values)

	// Early stop.
	var first []uint32
	for value := range ReadTape(strings.NewReader("7\n8\n9\n")) {
		first = append(first, value)
		break
	}
	assert.Equal([]uint32{7}, first)
}
