// Package apperr classifies errors that cross the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of an application error.
type Kind string

const (
	InvalidRequest Kind = "invalid_request"
	NotFound       Kind = "not_found"
	Unavailable    Kind = "unavailable"
	Conflict       Kind = "conflict"
	InvalidState   Kind = "invalid_state"
	Gateway        Kind = "gateway_error"
	Internal       Kind = "internal"
)

const internalMessage = "Internal Server Error"

// Error carries a public message safe to show to clients and the internal cause.
type Error struct {
	Kind    Kind
	Message string         // shown to the client
	Fields  map[string]any // extra response fields, e.g. validation errors
	Err     error          // internal cause, logged only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithField attaches a response field and returns e.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func Invalid(msg string) *Error {
	return &Error{Kind: InvalidRequest, Message: msg}
}

func NotFoundErr(msg string) *Error {
	return &Error{Kind: NotFound, Message: msg}
}

func UnavailableErr(msg string) *Error {
	return &Error{Kind: Unavailable, Message: msg}
}

func ConflictErr(msg string) *Error {
	return &Error{Kind: Conflict, Message: msg}
}

func InvalidStateErr(msg string) *Error {
	return &Error{Kind: InvalidState, Message: msg}
}

func GatewayErr(msg string, err error) *Error {
	return &Error{Kind: Gateway, Message: msg, Err: err}
}

// Wrap hides err behind a generic message. Returns nil for a nil err.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Internal, Message: internalMessage, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case InvalidRequest, InvalidState:
		return http.StatusBadRequest
	case NotFound, Unavailable:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Gateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.Message != "" {
		return ae.Message
	}
	return internalMessage
}
