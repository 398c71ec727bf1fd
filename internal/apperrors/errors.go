// Package apperrors defines the error taxonomy surfaced to API clients.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindUpstream        Kind = "upstream"
	KindInternal        Kind = "internal"
	KindTooManyRequests Kind = "too_many_requests"
	KindPayloadTooLarge Kind = "payload_too_large"
)

// Error is a structured failure carrying the HTTP status and message shown to clients.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Details    []string
	// Cause is logged but never rendered.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of the error with a detail list attached.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = append([]string(nil), details...)
	return &cp
}

// WithCause returns a copy of the error wrapping the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

func newError(kind Kind, status int, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, StatusCode: status, Message: msg}
}

// Validation reports missing or invalid input.
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, http.StatusBadRequest, format, args...)
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, http.StatusNotFound, format, args...)
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, http.StatusConflict, format, args...)
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, format, args...)
}

// Forbidden reports an authenticated caller acting on something they do not own.
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, http.StatusForbidden, format, args...)
}

// Upstream reports a failure of the external media store.
func Upstream(cause error, format string, args ...any) *Error {
	return newError(KindUpstream, http.StatusInternalServerError, format, args...).WithCause(cause)
}

// Internal reports an unexpected failure.
func Internal(cause error, format string, args ...any) *Error {
	return newError(KindInternal, http.StatusInternalServerError, format, args...).WithCause(cause)
}

// TooManyRequests reports a rate limited caller.
func TooManyRequests(format string, args ...any) *Error {
	return newError(KindTooManyRequests, http.StatusTooManyRequests, format, args...)
}

// PayloadTooLarge reports a request body above the configured cap.
func PayloadTooLarge(format string, args ...any) *Error {
	return newError(KindPayloadTooLarge, http.StatusRequestEntityTooLarge, format, args...)
}

// genericMessage is shown for errors that carry no client-facing message.
const genericMessage = "Something went wrong"

// From converts any error into an *Error. Unstructured errors become a generic 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err, genericMessage)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
