package io

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateFS defines a file system interface that supports creating files and directories.
// It extends fs.FS with the write capabilities needed by the port files
// and the persisted memory image.
type CreateFS interface {
	fs.FS
	// Sub returns a filesystem for a subdirectory.
	Sub(name string) (sub CreateFS, err error)
	// Create creates a new file for writing, truncating any existing file.
	Create(name string) (file io.WriteCloser, err error)
	// Mkdir creates a new directory with the specified permissions.
	Mkdir(name string, filemode fs.FileMode) (err error)
}

// DirFS is a CreateFS rooted at a host directory.
type DirFS string

var _ CreateFS = DirFS("")

func (dir DirFS) path(name string) (path string, err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
		return
	}
	path = filepath.Join(string(dir), filepath.FromSlash(name))
	return
}

// Open opens a file for reading.
func (dir DirFS) Open(name string) (file fs.File, err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}
	osfile, err := os.Open(path)
	if err != nil {
		return
	}
	file = osfile
	return
}

// Sub returns the subdirectory name, which must already exist.
func (dir DirFS) Sub(name string) (sub CreateFS, err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if !info.IsDir() {
		err = &fs.PathError{Op: "sub", Path: name, Err: fs.ErrInvalid}
		return
	}
	sub = DirFS(path)
	return
}

// Create creates or truncates a file.
func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}
	osfile, err := os.Create(path)
	if err != nil {
		return
	}
	file = osfile
	return
}

// Mkdir creates a directory.
func (dir DirFS) Mkdir(name string, filemode fs.FileMode) (err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}
	return os.Mkdir(path, filemode)
}

// SubOrMkdir returns the subdirectory name of filesys, creating it if missing.
func SubOrMkdir(filesys CreateFS, name string) (sub CreateFS, err error) {
	sub, err = filesys.Sub(name)
	if err == nil {
		return
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return
	}

	err = filesys.Mkdir(name, 0755)
	if err != nil {
		return
	}

	return filesys.Sub(name)
}
