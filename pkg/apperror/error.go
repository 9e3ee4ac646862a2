// Package apperror defines the error taxonomy shared by the repository,
// the validator and the resource services. Every failure surfaced to a
// caller carries a message and an HTTP-shaped status code; validation
// failures additionally carry a field-keyed map of messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the stable error shape propagated across layers.
type Error struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Fields  map[string][]string `json:"errors,omitempty"`
	Cause   error               `json:"-"`
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

// WithCause attaches the underlying error without changing the
// caller-visible message or status.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// NotFound reports entity absence, including empty archive and
// paginated result sets.
func NotFound(message string) *Error {
	return &Error{Message: message, Status: http.StatusNotFound}
}

// BadRequest reports caller input errors and illegal state transitions.
func BadRequest(message string) *Error {
	return &Error{Message: message, Status: http.StatusBadRequest}
}

// Unauthorized reports identity or ownership mismatches.
func Unauthorized(message string) *Error {
	return &Error{Message: message, Status: http.StatusUnauthorized}
}

// Forbidden reports role mismatches on otherwise valid identities.
func Forbidden(message string) *Error {
	return &Error{Message: message, Status: http.StatusForbidden}
}

// Internal wraps unexpected store or filesystem failures, preserving
// the original message for operators.
func Internal(message string, cause error) *Error {
	return &Error{Message: message, Status: http.StatusInternalServerError, Cause: cause}
}

// Validation reports a rule-engine failure with the accumulated
// field → messages map.
func Validation(fields map[string][]string) *Error {
	return &Error{
		Message: "validation failed",
		Status:  http.StatusBadRequest,
		Fields:  fields,
	}
}

// StatusOf extracts the HTTP status from err, defaulting to 500 for
// errors that did not originate in this taxonomy.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// FieldsOf returns the field-keyed error map when err is a validation
// failure, or nil otherwise.
func FieldsOf(err error) map[string][]string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
