package io

import (
	"bytes"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ram is a byte-per-address bus for mapper tests.
type ram []byte

func (mem ram) Read(addr uint32) (value uint32, err error) {
	if int(addr) >= len(mem) {
		err = ErrPortRange
		return
	}
	return uint32(mem[addr]), nil
}

func (mem ram) Write(addr uint32, value uint32) (err error) {
	if int(addr) >= len(mem) {
		err = ErrPortRange
		return
	}
	mem[addr] = byte(value)
	return
}

func TestMapper_PlainMemory(t *testing.T) {
	assert := assert.New(t)

	mem := make(ram, 16)
	mm := &Mapper{Memory: mem}

	assert.NoError(mm.Write(0, 5))
	assert.NoError(mm.Write(15, 7))
	value, err := mm.Read(0)
	assert.NoError(err)
	assert.Equal(uint32(5), value)
	assert.Equal(byte(7), mem[15])

	_, err = mm.Read(16)
	assert.ErrorIs(err, ErrPortRange)
}

func TestMapper_Devices(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	mem := make(ram, 16)
	out := &bytes.Buffer{}
	mm := &Mapper{
		Memory: mem,
		Tape:   &Tape{Output: out},
		Ports:  &Ports{FS: DirFS(dir), Base: 12, Count: 4},
		Image:  &Image{FS: DirFS(dir), Name: "ram.txt"},
	}

	// Tape writes never touch memory.
	assert.NoError(mm.Write(0, 3))
	assert.NoError(mm.Write(0, 1))
	assert.Equal("3\n1\n", out.String())
	assert.Equal(byte(0), mem[0])
	assert.False(mm.Image.Dirty())

	// Reading the tape address reads memory.
	mem[0] = 9
	value, err := mm.Read(0)
	assert.NoError(err)
	assert.Equal(uint32(9), value)

	// Ports.
	assert.NoError(mm.Write(13, 2))
	value, err = mm.Read(13)
	assert.NoError(err)
	assert.Equal(uint32(2), value)
	assert.Equal(byte(0), mem[13])

	// Memory writes dirty the image.
	assert.NoError(mm.Write(4, 6))
	assert.True(mm.Image.Dirty())
	assert.NoError(mm.Flush(mem))
	assert.False(mm.Image.Dirty())

	loaded := make([]byte, 16)
	assert.NoError(mm.Image.Load(loaded))
	assert.Equal([]byte(mem), loaded)
}

func TestMapper_Defines(t *testing.T) {
	assert := assert.New(t)

	mm := &Mapper{}
	assert.Equal(map[string]string{"TAPE": "0"}, maps.Collect(mm.Defines()))

	mm.Ports = &Ports{Base: 240, Count: 16}
	assert.Equal(map[string]string{
		"TAPE":       "0",
		"PORT_BASE":  "240",
		"PORT_LIMIT": "256",
	}, maps.Collect(mm.Defines()))

	// Flush without an image is a no-op.
	assert.NoError(mm.Flush(nil))
}
