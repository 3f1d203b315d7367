package interp

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RuntimeError is the interpreter's structured fault type: a plain-string
// explanation (division by zero, index out of bounds, undefined variable,
// type mismatch in a binary op) plus an optional wrapped cause, matching
// the Message+Cause+Unwrap shape used across this codebase's error types.
//
// CorrelationID is stamped on construction so a RuntimeError surfaced
// through a long call chain (concurrent/parallel tasks, a select clause) can
// be matched back to the originating fault in logs.
type RuntimeError struct {
	Message       string
	Cause         error
	CorrelationID string
}

// NewRuntimeError builds a RuntimeError from a message, assigning a fresh
// correlation ID.
func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), CorrelationID: uuid.NewString()}
}

// WrapRuntimeError builds a RuntimeError that chains cause via Unwrap.
func WrapRuntimeError(cause error, format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Cause: cause, CorrelationID: uuid.NewString()}
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// IsRuntimeError reports whether err is (or wraps) a *RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
