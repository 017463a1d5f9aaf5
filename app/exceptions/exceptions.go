// Package exceptions defines the domain error taxonomy. Services return
// these errors; controllers map them onto HTTP statuses in exactly one
// place, so a ConflictError is a 409 everywhere it can occur.
package exceptions

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindValidation covers malformed input: bad names, unknown sort
	// fields, non-numeric ids, disallowed content types.
	KindValidation Kind = iota + 1
	// KindUnauthorized covers missing or failed authentication.
	KindUnauthorized
	// KindNotFound covers targets that do not exist, are deleted, or
	// belong to another user. Those three cases are indistinguishable to
	// the caller on purpose.
	KindNotFound
	// KindConflict covers sibling name collisions and moves that would
	// create a cycle.
	KindConflict
	// KindTooLarge covers uploads over the size cap.
	KindTooLarge
	// KindStorage covers blob store failures.
	KindStorage
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
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

// Validation builds a KindValidation error.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// TooLarge builds a KindTooLarge error.
func TooLarge(format string, args ...interface{}) *Error {
	return &Error{Kind: KindTooLarge, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a blob store failure.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "Storage backend unavailable", Err: err}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, 0 when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is lets errors.Is compare by kind: errors.Is(err, exceptions.NotFound("")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// HTTPStatus maps err to a status code and client-safe message. Errors
// outside the taxonomy become 500 with a generic message, keeping internal
// details out of responses.
func HTTPStatus(err error) (int, string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, "Internal server error"
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest, e.Message
	case KindUnauthorized:
		return http.StatusUnauthorized, e.Message
	case KindNotFound:
		return http.StatusNotFound, e.Message
	case KindConflict:
		return http.StatusConflict, e.Message
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge, e.Message
	case KindStorage:
		return http.StatusBadGateway, e.Message
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
