package amr

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ParseError.
var (
	// ErrEmpty indicates the input had no content besides whitespace.
	ErrEmpty = errors.New("amr: empty input")

	// ErrUnbalanced indicates a missing or surplus parenthesis.
	ErrUnbalanced = errors.New("amr: unbalanced parentheses")

	// ErrMissingRoleMarker indicates a role value without a preceding ":role".
	ErrMissingRoleMarker = errors.New("amr: missing role marker")

	// ErrUndeclaredVariable indicates a reference to a variable that is never declared.
	ErrUndeclaredVariable = errors.New("amr: undeclared variable")

	// ErrDuplicateVariable indicates two instances declared with the same variable.
	ErrDuplicateVariable = errors.New("amr: duplicate variable")

	// ErrSyntax covers any other malformed token sequence.
	ErrSyntax = errors.New("amr: syntax error")
)

// ParseError reports where and why an annotation could not be parsed.
type ParseError struct {
	Line int
	Col  int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Msg)
	}
	return fmt.Sprintf("%v at %d:%d: %s", e.Err, e.Line, e.Col, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func errorAt(t token, kind error, format string, args ...any) *ParseError {
	return &ParseError{
		Line: t.line,
		Col:  t.col,
		Msg:  fmt.Sprintf(format, args...),
		Err:  kind,
	}
}
