// Package apierr carries the status/message pair every admission and
// validation failure is reduced to before it reaches the HTTP boundary.
package apierr

import "net/http"

// Error is a typed error with an HTTP status attached, per the taxonomy
// of client-format, authentication, authorization, not-found and
// rate-limit failures.
type Error struct {
	Status  int
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func Wrap(status int, message string, details string) *Error {
	return &Error{Status: status, Message: message, Details: details}
}

func BadRequest(message string) *Error      { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error    { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error       { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error        { return New(http.StatusNotFound, message) }
func TooManyRequests(message string) *Error { return New(http.StatusTooManyRequests, message) }
func Internal(message string) *Error        { return New(http.StatusInternalServerError, message) }

// As extracts an *Error, falling back to a generic 500 for anything the
// admission pipeline did not already classify.
func As(err error) *Error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*Error); ok {
		return apiErr
	}

	return Internal("internal error")
}
