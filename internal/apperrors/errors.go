// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories the API surfaces. Everything a
// service returns maps to exactly one kind; handlers never inspect error
// strings.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindDuplicateName Kind = "DUPLICATE_NAME"
	KindNotFound      Kind = "NOT_FOUND"
	KindInvalidState  Kind = "INVALID_STATE"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindForbidden     Kind = "FORBIDDEN"
	KindInternal      Kind = "INTERNAL_ERROR"
)

var httpStatusByKind = map[Kind]int{
	KindValidation:    http.StatusUnprocessableEntity,
	KindDuplicateName: http.StatusConflict,
	KindNotFound:      http.StatusNotFound,
	KindInvalidState:  http.StatusConflict,
	KindUnauthorized:  http.StatusUnauthorized,
	KindForbidden:     http.StatusForbidden,
	KindInternal:      http.StatusInternalServerError,
}

// HTTPStatus maps a kind to its response code. Unknown kinds are treated as
// internal failures.
func HTTPStatus(kind Kind) int {
	if status, ok := httpStatusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FieldError is one entry of the structured 422 payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	kind    Kind
	message string
	fields  []FieldError
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause that is logged but never leaked to clients.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

// Validation builds a 422 error carrying the full list of violated fields.
func Validation(fields []FieldError) *Error {
	return &Error{kind: KindValidation, message: "validation failed", fields: fields}
}

func NotFound(resource string) *Error {
	return &Error{kind: KindNotFound, message: resource + " not found"}
}

func Internal(err error) *Error {
	return &Error{kind: KindInternal, message: "an internal server error occurred", cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// Message is the client-safe description; the cause stays server side.
func (e *Error) Message() string { return e.message }

func (e *Error) Fields() []FieldError { return e.fields }

// KindOf extracts the kind from any error chain; plain errors read as
// internal failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError returns the typed error from a chain, or wraps a plain one as
// internal so handlers always have a message and status to work with.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
