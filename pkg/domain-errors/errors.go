// Package dErrors provides coded domain errors. Services attach a Code
// so callers can branch on the kind of failure without matching on
// message text. Infrastructure facts (not found, conflict) start as
// pkg/platform/sentinel errors and are translated into coded errors at
// the service boundary.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks bad input caught by value parsers.
	CodeValidation Code = "validation"
	// CodeInvariantViolation marks a domain rule broken by an otherwise
	// well-formed request (duplicate group name, coordinator not a member).
	CodeInvariantViolation Code = "invariant_violation"
	// CodeConflict marks uniqueness conflicts detected at write time.
	CodeConflict Code = "conflict"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidInput marks malformed identifiers or arguments.
	CodeInvalidInput Code = "invalid_input"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal
// when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
