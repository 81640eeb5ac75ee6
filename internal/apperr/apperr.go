// Package apperr defines the error taxonomy shared by the data access,
// allocation and reconciliation layers. Every error produced here matches
// exactly one sentinel with errors.Is and carries a short message that is
// safe to show to end users.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrTransient           = errors.New("temporarily unavailable")
	ErrStore               = errors.New("store error")
	ErrConfiguration       = errors.New("configuration error")
	ErrAllocationExhausted = errors.New("allocation exhausted")
)

// Error pairs a sentinel kind with a public message and an optional cause.
// The cause is kept for logging and errors.As, it is never part of Error().
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func Validation(msg string) error {
	return newError(ErrValidation, msg, nil)
}

func NotFound(msg string) error {
	return newError(ErrNotFound, msg, nil)
}

func Conflict(msg string, cause error) error {
	return newError(ErrConflict, msg, cause)
}

func Transient(msg string, cause error) error {
	return newError(ErrTransient, msg, cause)
}

func Store(msg string, cause error) error {
	return newError(ErrStore, msg, cause)
}

func Configuration(msg string) error {
	return newError(ErrConfiguration, msg, nil)
}

func Exhausted(msg string, cause error) error {
	return newError(ErrAllocationExhausted, msg, cause)
}

// Kind returns the sentinel err belongs to, or nil for errors outside the taxonomy.
func Kind(err error) error {
	// Exhausted wraps the last conflict, so it must be checked first.
	for _, kind := range []error{
		ErrAllocationExhausted,
		ErrValidation,
		ErrNotFound,
		ErrConflict,
		ErrTransient,
		ErrConfiguration,
		ErrStore,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Public returns a short, non-leaking message for err.
// Unknown errors collapse to a generic message.
func Public(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case ErrValidation, ErrNotFound, ErrConflict, ErrAllocationExhausted:
			return e.Error()
		}
		return e.Kind.Error()
	}
	return "internal error"
}

// Status maps err to the HTTP status a handler should respond with.
func Status(err error) int {
	switch Kind(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrAllocationExhausted, ErrTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
