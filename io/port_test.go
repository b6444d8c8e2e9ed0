package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPorts_Contains(t *testing.T) {
	assert := assert.New(t)

	var nilPorts *Ports
	assert.False(nilPorts.Contains(0))

	ports := &Ports{FS: DirFS(t.TempDir()), Base: 240, Count: 16}
	assert.False(ports.Contains(239))
	assert.True(ports.Contains(240))
	assert.True(ports.Contains(255))
	assert.False(ports.Contains(256))

	unbacked := &Ports{Base: 0, Count: 16}
	assert.False(unbacked.Contains(1))
}

func TestPorts_ReadCreates(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	ports := &Ports{FS: DirFS(dir), Base: 12, Count: 4}

	value, err := ports.Read(13)
	assert.NoError(err)
	assert.Equal(uint32(0), value)

	data, err := os.ReadFile(filepath.Join(dir, "13.txt"))
	require.NoError(t, err)
	assert.Equal("0", string(data))
}

func TestPorts_WriteRead(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	ports := &Ports{FS: DirFS(dir), Base: 12, Count: 4}

	assert.NoError(ports.Write(14, 3))
	value, err := ports.Read(14)
	assert.NoError(err)
	assert.Equal(uint32(3), value)

	// Overwrite, not append.
	assert.NoError(ports.Write(14, 2))
	data, err := os.ReadFile(filepath.Join(dir, "14.txt"))
	require.NoError(t, err)
	assert.Equal("2", string(data))

	// External device update.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "15.txt"), []byte("9\n"), 0644))
	value, err = ports.Read(15)
	assert.NoError(err)
	assert.Equal(uint32(9), value)
}

func TestPorts_Errors(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	ports := &Ports{FS: DirFS(dir), Base: 12, Count: 4}

	_, err := ports.Read(3)
	assert.ErrorIs(err, ErrPortRange)
	assert.ErrorIs(ports.Write(16, 1), ErrPortRange)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "12.txt"), []byte("high"), 0644))
	_, err = ports.Read(12)
	assert.ErrorIs(err, ErrPortValue)
}
