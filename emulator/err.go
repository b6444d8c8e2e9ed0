package emulator

import (
	"errors"

	"github.com/ezrec/nandvm/translate"
)

var f = translate.From

var (
	ErrCommandArgument = errors.New(f("command argument invalid"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrCommandInvalid is an unknown monitor command.
type ErrCommandInvalid string

func (err ErrCommandInvalid) Error() string {
	return f("'%v' is not a command, try 'help'", string(err))
}
