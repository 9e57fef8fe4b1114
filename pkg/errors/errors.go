// Package errors carries typed failures from the services to the HTTP layer.
// Every code maps to one status, one public message and a retry hint.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered to API clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func describe(status int, public string, retryable, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: public, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    describe(http.StatusBadRequest, "validation failed", false, true),
	CodeUnauthorized:  describe(http.StatusUnauthorized, "authentication required", false, false),
	CodeForbidden:     describe(http.StatusForbidden, "access denied", false, false),
	CodeNotFound:      describe(http.StatusNotFound, "resource not found", false, false),
	CodeConflict:      describe(http.StatusConflict, "conflict detected", false, false),
	CodeStateConflict: describe(http.StatusUnprocessableEntity, "state transition disallowed", false, true),
	CodeIdempotency:   describe(http.StatusConflict, "idempotency key reused", false, true),
	CodeRateLimit:     describe(http.StatusTooManyRequests, "rate limit exceeded", false, false),
	CodeInternal:      describe(http.StatusInternalServerError, "internal server error", true, false),
	CodeDependency:    describe(http.StatusServiceUnavailable, "dependency unavailable", true, true),
}

// MetadataFor falls back to the internal error rendering for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error shared by every layer.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// NotFound reports a missing entity, e.g. NotFound("pet") -> "pet not found".
func NotFound(entity string) *Error {
	return New(CodeNotFound, entity+" not found")
}

// Unauthenticated is returned when an operation needs a signed-in user.
func Unauthenticated() *Error {
	return New(CodeUnauthorized, "user identity missing")
}

func Forbidden(reason string) *Error {
	return New(CodeForbidden, reason)
}

// Dependency wraps a storage or transport failure that happened during action.
func Dependency(err error, action string) *Error {
	return Wrap(CodeDependency, err, action)
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error carrying the same code, so errors.Is works against
// values built with New.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.code == t.code
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
