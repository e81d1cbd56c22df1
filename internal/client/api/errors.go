package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkErrorMessage is the message carried by transport-level failures.
const NetworkErrorMessage = "Network error: unable to reach the server. Please check your connection."

// Error is the single error type returned by the client. Status is the HTTP
// status code, or 0 when the request never produced a response.
type Error struct {
	// Status is the HTTP status code (0 for network failures).
	Status int
	// Message is the best-effort human readable message.
	Message string
	// Payload is the parsed response body, if any.
	Payload any

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the error this one was built from, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code carried by the error.
func (e *Error) StatusCode() int {
	return e.Status
}

// IsNetwork reports whether the request failed before a response arrived.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// NewError builds an Error for the given status.
func NewError(status int, message string, payload any) *Error {
	return &Error{Status: status, Message: message, Payload: payload}
}

// wrap returns err as an *Error. An *Error already in the chain is returned
// unchanged; anything else gets status and keeps err as its cause.
func wrap(status int, err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Status: status, Message: err.Error(), cause: err}
}

// hookError normalizes a failure returned by an interceptor. Hooks run on
// the client side, so they are reported like a rejected request.
func hookError(err error) *Error {
	return wrap(http.StatusBadRequest, err)
}

// decodeError is returned when a 2xx body does not have the expected shape.
func decodeError(err error) *Error {
	return wrap(http.StatusBadGateway, err)
}

func networkError(cause error) *Error {
	return &Error{Status: 0, Message: NetworkErrorMessage, cause: cause}
}

// invalid is the fail-fast error returned by domain methods before any
// request is made.
func invalid(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// httpError builds the error for a non-2xx response.
func httpError(status int, payload any) *Error {
	msg := fmt.Sprintf("HTTP error! status: %d", status)
	if m := messageFrom(payload); m != "" {
		msg = m
	}
	return &Error{Status: status, Message: msg, Payload: payload}
}

func messageFrom(payload any) string {
	body, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	return ""
}

// StatusOf returns the status carried by err, or -1 when err is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}
