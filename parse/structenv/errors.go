package structenv

import (
	"errors"
	"fmt"
)

var (
	ErrPrecondition       = errors.New("precondition failed")
	ErrBoundary           = errors.New("boundary violation")
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// Error carries the error class in Kind; match it with errors.Is.
type Error struct {
	Kind error
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("structenv:%d: %s: %s", e.Line, e.Kind, e.Msg)
	}
	return fmt.Sprintf("structenv: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func errf(kind error, line int, format string, args ...any) error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}
