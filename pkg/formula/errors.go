package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("formula: syntax error")
	// ErrMissingOperand is returned when a referenced meter has no value at
	// the evaluated timestamp.
	ErrMissingOperand = errors.New("formula: missing operand")
	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("formula: division by zero")
)

type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula: syntax error at %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// MissingOperandError names the identifier that could not be resolved.
type MissingOperandError struct {
	Identifier string
}

func (e *MissingOperandError) Error() string {
	return fmt.Sprintf("formula: missing operand %q", e.Identifier)
}

func (e *MissingOperandError) Is(target error) bool {
	return target == ErrMissingOperand
}
