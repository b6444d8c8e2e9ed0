package io

import (
	"errors"

	"github.com/ezrec/nandvm/translate"
)

var f = translate.From

var (
	// Device errors
	ErrIoFailure  = errors.New(f("i/o failure"))
	ErrPortValue  = errors.New(f("port value invalid"))
	ErrPortRange  = errors.New(f("port out of range"))
	ErrImageEmpty = errors.New(f("image not configured"))
)

// ErrImageFormat reports a malformed value in a decimal image file.
type ErrImageFormat struct {
	LineNo int
	Text   string
}

func (err *ErrImageFormat) Error() string {
	return f("line %d '%v' is not a byte value", err.LineNo, err.Text)
}
