package io

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Ports proxies a window of addresses to small files, one per address,
// named "<addr>.txt". Each file holds a single decimal value.
type Ports struct {
	FS    CreateFS // Directory holding the port files.
	Base  uint32   // First port address.
	Count int      // Number of port addresses.
}

var _ Bus = (*Ports)(nil)

// Contains reports whether addr is a port address.
func (ports *Ports) Contains(addr uint32) bool {
	if ports == nil || ports.FS == nil {
		return false
	}
	return addr >= ports.Base && uint64(addr) < uint64(ports.Base)+uint64(ports.Count)
}

// Name returns the file name backing the port at addr.
func (ports *Ports) Name(addr uint32) string {
	return fmt.Sprintf("%d.txt", addr)
}

// Read returns the current value of the port at addr.
// A missing port file is created holding 0.
func (ports *Ports) Read(addr uint32) (value uint32, err error) {
	if !ports.Contains(addr) {
		err = ErrPortRange
		return
	}

	name := ports.Name(addr)
	data, err := fs.ReadFile(ports.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		err = ports.Write(addr, 0)
		return
	}
	if err != nil {
		err = errors.Join(ErrIoFailure, err)
		return
	}

	value, err = parseValue(string(data))
	if err != nil {
		err = fmt.Errorf("%v: %w", name, err)
	}

	return
}

// Write replaces the value of the port at addr.
func (ports *Ports) Write(addr uint32, value uint32) (err error) {
	if !ports.Contains(addr) {
		err = ErrPortRange
		return
	}

	var file io.WriteCloser
	file, err = ports.FS.Create(ports.Name(addr))
	if err != nil {
		err = errors.Join(ErrIoFailure, err)
		return
	}

	_, err = fmt.Fprintf(file, "%d", value)
	cerr := file.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		err = errors.Join(ErrIoFailure, err)
	}

	return
}
