// Package domainerrors provides coded errors for the service boundary.
// Services return these so handlers can map failures to transport responses
// without string matching. Stores return sentinel errors (pkg/platform/sentinel)
// and the service layer translates.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure across the API surface.
type Code string

const (
	CodeUnauthorized        Code = "unauthorized"
	CodeNotFound            Code = "not_found"
	CodeValidation          Code = "validation"
	CodeBadRequest          Code = "bad_request"
	CodeAlreadyAcknowledged Code = "already_acknowledged"
	CodeAlreadyCompleted    Code = "already_completed"
	CodeInternal            Code = "internal"
)

// Error carries a code plus a human-readable description. It optionally wraps
// an underlying cause for logging; the cause is never surfaced to callers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// HasCode is an alias kept for call-site readability in services.
func HasCode(err error, code Code) bool { return Is(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
