package hook

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error with a name and an HTTP status code.
// Hooks and services return it to control how transports report a failure.
type Error struct {
	Name    string // Error class name, e.g. "Forbidden"
	Message string // Message sent to the client
	Code    int    // HTTP status code
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// NewError creates an Error with the given status code.
// The name is derived from the status text.
func NewError(code int, message string) *Error {
	name := http.StatusText(code)
	if name == "" {
		name = "GeneralError"
	}
	return &Error{Name: compact(name), Message: message, Code: code}
}

// BadRequest reports malformed input (400).
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// NotAuthenticated reports a call that needs a user but has none (401).
func NotAuthenticated(message string) *Error {
	return &Error{Name: "NotAuthenticated", Message: message, Code: http.StatusUnauthorized}
}

// Forbidden reports an authenticated user lacking permission (403).
func Forbidden(message string) *Error {
	return NewError(http.StatusForbidden, message)
}

// NotFound reports a missing record or service (404).
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// MethodNotAllowed reports an operation the target does not support (405).
func MethodNotAllowed(message string) *Error {
	return NewError(http.StatusMethodNotAllowed, message)
}

// TooManyRequests reports a client over its request rate (429).
func TooManyRequests(message string) *Error {
	return NewError(http.StatusTooManyRequests, message)
}

// GeneralError reports a server-side failure (500).
func GeneralError(message string) *Error {
	return &Error{Name: "GeneralError", Message: message, Code: http.StatusInternalServerError}
}

// StatusCode returns the HTTP status code for err.
// Errors that are not an *Error map to 500.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}

// AsError converts err into an *Error, wrapping unknown errors as GeneralError.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return GeneralError(err.Error())
}

// compact strips spaces from a status text ("Not Found" -> "NotFound").
func compact(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
