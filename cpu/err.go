package cpu

import (
	"errors"

	"github.com/ezrec/nandvm/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrMalformedInput   = errors.New(f("malformed input"))
	ErrOperandRange     = errors.New(f("operand out of range"))
	ErrOpcodeInvalid    = errors.New(f("opcode invalid"))
	ErrInstructionShort = errors.New(f("instruction short"))
	ErrWidthInvalid     = errors.New(f("width invalid"))

	// Assembler errors
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrOrgSyntax        = errors.New(f(".org syntax"))
	ErrDataSyntax       = errors.New(f(".data syntax"))
	ErrDirectiveInvalid = errors.New(f("directive invalid"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrLabelInvalid     = errors.New(f("label invalid"))
	ErrOpcodeExtraArgs  = errors.New(f("excessive arguments"))
	ErrOpcodeMissing    = errors.New(f("operand missing"))
	ErrRegisterInvalid  = errors.New(f("register invalid"))
	ErrMemoryInvalid    = errors.New(f("memory reference invalid"))

	// HDLb0 errors
	ErrHDLb0Syntax = errors.New(f("hdlb0 line needs four binary fields"))
	ErrHDLb0Route  = errors.New(f("hdlb0 routing does not match an instruction"))
)

// ErrOperand is an instruction or memory operand outside its space.
type ErrOperand struct {
	Field string
	Value uint32
}

func (err *ErrOperand) Error() string {
	return f("%v %d out of range", err.Field, err.Value)
}

func (err *ErrOperand) Unwrap() error {
	return ErrOperandRange
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// Is makes every syntax error a malformed input.
func (err ErrSyntax) Is(target error) bool {
	return target == ErrMalformedInput
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
