package lifecycle

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a transition was rejected
type Kind string

// Rejection kinds
const (
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindPreconditionFailed Kind = "precondition_failed"
	KindForbidden          Kind = "forbidden"
	KindConflict           Kind = "conflict"
)

// HTTPStatus maps the kind to the response status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindPreconditionFailed, KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error is a rejected transition. Nothing has been written when one is returned.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the kind of a rejection anywhere in err's chain
func KindOf(err error) (Kind, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

func reject(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFound rejection
func NotFound(format string, args ...interface{}) *Error {
	return reject(KindNotFound, format, args...)
}

// InvalidInput builds an InvalidInput rejection
func InvalidInput(format string, args ...interface{}) *Error {
	return reject(KindInvalidInput, format, args...)
}

// Forbidden builds a Forbidden rejection
func Forbidden(format string, args ...interface{}) *Error {
	return reject(KindForbidden, format, args...)
}

// PreconditionFailed builds a PreconditionFailed rejection
func PreconditionFailed(format string, args ...interface{}) *Error {
	return reject(KindPreconditionFailed, format, args...)
}

// Conflict builds a Conflict rejection
func Conflict(format string, args ...interface{}) *Error {
	return reject(KindConflict, format, args...)
}
