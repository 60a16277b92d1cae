package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a request failure. Every store or validation failure is
// wrapped into one of these before it crosses the handler boundary, where it
// maps onto an HTTP status and the response envelope.
type Kind int

const (
	// KindValidation: malformed, missing or out-of-range field. 400.
	KindValidation Kind = iota
	// KindDuplicate: unique constraint hit (name/email/username). 400 with a
	// field-specific message.
	KindDuplicate
	// KindUnauthenticated: missing, malformed or expired credential. 401.
	KindUnauthenticated
	// KindAccountDisabled: structurally valid credential for a disabled
	// account. 401 with a distinct message.
	KindAccountDisabled
	// KindForbidden: authenticated but lacking ownership or role. 403.
	KindForbidden
	// KindNotFound: referenced id absent. 404.
	KindNotFound
	// KindInternal: store or unexpected failure. 500, detail suppressed
	// outside development mode.
	KindInternal
)

// Error carries the kind, a user-facing message and an optional field name
// (set for validation and duplicate errors).
type Error struct {
	Kind    Kind
	Message string
	Field   string
	// Details lists per-field messages for validation failures; rendered as
	// the envelope's errors array.
	Details []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the kind to its response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindUnauthenticated, KindAccountDisabled:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func ValidationField(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// Duplicate names the specific colliding field: registration with a duplicate
// email must report "email", not "username", even when both collide.
func Duplicate(field, msg string) *Error {
	return &Error{Kind: KindDuplicate, Field: field, Message: msg}
}

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

func AccountDisabled(msg string) *Error { return &Error{Kind: KindAccountDisabled, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Internal wraps an unexpected failure. The cause is logged server-side; the
// message is what the client may see.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// KindOf extracts the kind from err, defaulting to KindInternal for anything
// that is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// As returns the *Error inside err, or a generic internal error wrapping it.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal server error", err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
