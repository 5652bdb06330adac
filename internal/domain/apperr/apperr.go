// Package apperr classifies domain errors so adapters can map them to
// transport status codes without knowing each sentinel.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the classification of an application error.
type Kind int

// Error kinds
const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConfig
	KindExternal
	KindForbidden
	KindUnauthorized
	KindConflict
)

// String returns the snake_case name of the kind, used as a log attribute.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConfig:
		return "config"
	case KindExternal:
		return "external"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified error. Msg is safe to show to clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error with the given client message.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

// NotFound returns a KindNotFound error with the given client message.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

// Config returns a KindConfig error with the given client message.
func Config(msg string) *Error { return &Error{Kind: KindConfig, Msg: msg} }

// Forbidden returns a KindForbidden error with the given client message.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Msg: msg} }

// Unauthorized returns a KindUnauthorized error with the given client message.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// Conflict returns a KindConflict error with the given client message.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Msg: msg} }

// External wraps a failure reported by an upstream service. The message is
// relayed to clients verbatim.
func External(msg string, cause error) *Error {
	return &Error{Kind: KindExternal, Msg: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to its HTTP status code.
// PRE: err is non-nil
// POST: returns 500 for unclassified errors
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConfig:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsClientVisible reports whether the error message may be shown to clients.
// Unclassified errors may carry internal detail and are hidden.
func IsClientVisible(err error) bool {
	return KindOf(err) != KindInternal
}
