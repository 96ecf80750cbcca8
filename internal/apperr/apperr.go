// Package apperr defines the typed failures returned by the scheduling and
// lab services. The transport layer decides how each kind is presented.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"

	// KindUnauthorized is reserved for failed credential checks.
	KindUnauthorized Kind = "unauthorized"
)

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, or one hidden from the caller.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Validation reports a violated precondition.
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Forbidden reports an authenticated caller not entitled to the resource.
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

// Unauthorized reports credentials that could not be verified.
func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

// Wrap attaches a cause to e and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" if
// err is not classified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message of a classified error, or the
// plain error text otherwise.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
