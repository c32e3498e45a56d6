// Package domainerrors carries the stable failure categories the services
// report. Handlers translate a Code to an HTTP status; nothing below the
// transport layer knows about HTTP.
package domainerrors

import "errors"

type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"

	// The acting principal lacks the required role on the record.
	CodeForbidden Code = "forbidden"
	// A referenced actor, system group or custom group does not exist.
	CodeInvalidReference Code = "invalid_reference"
	// The operation does not fit the record's current state, e.g. completing
	// an unassigned task or archiving the last manager out of a group.
	CodeInvalidState Code = "invalid_state"
)

// Error is a coded failure. Two Errors match under errors.Is when their
// codes are equal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches msg to err. An err that already carries a code keeps it, so
// a store's not_found survives being wrapped as internal by a caller.
func Wrap(err error, code Code, msg string) error {
	if c, ok := codeOf(err); ok {
		code = c
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	c, ok := codeOf(err)
	return ok && c == code
}

// CodeOf returns the code carried by err; uncoded errors are internal.
func CodeOf(err error) Code {
	if c, ok := codeOf(err); ok {
		return c
	}
	return CodeInternal
}

func codeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
