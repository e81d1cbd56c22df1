// Package errstore classifies failures into a fixed set of kinds and buffers
// them for display with optional auto-removal.
package errstore

import (
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/MineAdmin/internal/client/api"
)

// Kind is the classification of a failure.
type Kind string

const (
	KindNetwork       Kind = "NETWORK_ERROR"
	KindAuthorization Kind = "AUTHORIZATION_ERROR"
	KindNotFound      Kind = "NOT_FOUND_ERROR"
	KindServer        Kind = "SERVER_ERROR"
	KindValidation    Kind = "VALIDATION_ERROR"
	KindAPI           Kind = "API_ERROR"
	KindUnknown       Kind = "UNKNOWN_ERROR"
)

// Kinds lists every Kind in display order.
var Kinds = []Kind{KindNetwork, KindAuthorization, KindNotFound, KindServer, KindValidation, KindAPI, KindUnknown}

// ValidationError is a field-level input failure raised before a request
// is made.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

type statusCoder interface {
	StatusCode() int
}

// Classify maps err to a Kind. The status carried by the error wins over
// its type, and the message is consulted last.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch status := sc.StatusCode(); {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return KindAuthorization
		case status == http.StatusNotFound:
			return KindNotFound
		case status >= http.StatusInternalServerError:
			return KindServer
		case status == 0:
			return KindNetwork
		}
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return KindAPI
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	if strings.Contains(strings.ToLower(err.Error()), "network") {
		return KindNetwork
	}
	return KindUnknown
}

const (
	msgNetwork       = "Unable to connect to the server. Please check your connection and try again."
	msgAuthorization = "You are not authorized to perform this action. Please log in and try again."
	msgNotFound      = "The requested resource was not found."
	msgServer        = "A server error occurred. Please try again later or contact support."
	msgValidation    = "Please check your input and try again."
	msgAPI           = "The request could not be completed."
	msgUnknown       = "An unexpected error occurred. Please try again."
)

// FriendlyMessage returns the user-facing text for a failure of the given
// kind. Validation and API failures keep the original message when present.
func FriendlyMessage(kind Kind, err error) string {
	switch kind {
	case KindNetwork:
		return msgNetwork
	case KindAuthorization:
		return msgAuthorization
	case KindNotFound:
		return msgNotFound
	case KindServer:
		return msgServer
	case KindValidation:
		return messageOr(err, msgValidation)
	case KindAPI:
		return messageOr(err, msgAPI)
	default:
		return msgUnknown
	}
}

func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if m := strings.TrimSpace(err.Error()); m != "" {
		return m
	}
	return fallback
}
