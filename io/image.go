package io

import (
	"errors"
	"io/fs"
)

// Image is the persisted copy of the machine memory.
// The running machine owns its memory; the image file is only read by
// Load and only written, in full, by Flush.
type Image struct {
	FS   CreateFS // Directory holding the image file.
	Name string   // Image file name.

	dirty bool
}

// Configured reports whether the image has a backing file.
func (img *Image) Configured() bool {
	return img != nil && img.FS != nil && len(img.Name) != 0
}

// MarkDirty notes that memory diverged from the persisted image.
func (img *Image) MarkDirty() {
	if img != nil {
		img.dirty = true
	}
}

// Dirty reports whether a Flush is pending.
func (img *Image) Dirty() bool {
	return img != nil && img.dirty
}

// Load reads the persisted image into data. A missing image file leaves
// data unchanged and reports fs.ErrNotExist.
func (img *Image) Load(data []byte) (err error) {
	if !img.Configured() {
		err = ErrImageEmpty
		return
	}

	file, err := img.FS.Open(img.Name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(ErrIoFailure, err)
		}
		return
	}
	defer file.Close()

	loaded, err := ReadImage(file, len(data))
	if err != nil {
		return
	}

	copy(data, loaded)
	img.dirty = false

	return
}

// Flush writes data to the image file if it changed since the last
// Load or Flush.
func (img *Image) Flush(data []byte) (err error) {
	if !img.Configured() {
		err = ErrImageEmpty
		return
	}
	if !img.dirty {
		return
	}

	file, err := img.FS.Create(img.Name)
	if err != nil {
		err = errors.Join(ErrIoFailure, err)
		return
	}

	err = WriteImage(file, data)
	cerr := file.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		err = errors.Join(ErrIoFailure, err)
		return
	}

	img.dirty = false

	return
}
