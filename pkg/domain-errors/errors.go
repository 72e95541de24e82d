// Package domainerrors carries typed, code-bearing errors from services to the
// transport layer. Services return exactly one *Error per failed operation;
// handlers translate the code into a status and never inspect messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeNotFound means a referenced employee, proposal, article or queue
	// entry does not exist.
	CodeNotFound Code = "not_found"
	// CodeValidation means the caller supplied invalid input (empty diff,
	// missing required field, unknown field).
	CodeValidation Code = "validation_error"
	// CodeConflict means the target already reached a terminal state, e.g. a
	// second decision on the same proposal.
	CodeConflict Code = "conflict"
	// CodeInvalidState means the engine met data it cannot dispatch, such as an
	// unrecognized queue entry type.
	CodeInvalidState Code = "invalid_state"
	// CodeInvariantViolation is raised by model constructors; services convert
	// it to CodeValidation before returning.
	CodeInvariantViolation Code = "invariant_violation"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is a domain error with a stable code and a caller-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a domain error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause to a domain error. The cause stays reachable through
// errors.Is / errors.As but is never shown to API clients.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is kept as an alias of HasCode for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error in err, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
