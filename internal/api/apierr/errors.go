package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/liveclass/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorizedAdmin  = "UNAUTHORIZED_ADMIN"
	CodeAdminNotConfigured = "ADMIN_NOT_CONFIGURED"
	CodeSessionUnavailable = "SESSION_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrAdminUnauthorized):
		return &httpError{http.StatusForbidden, APIError{CodeUnauthorizedAdmin, "Invalid admin secret"}}
	case errors.Is(err, model.ErrAdminNotConfigured):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeAdminNotConfigured, "Admin actions are disabled on this server"}}
	case errors.Is(err, model.ErrIdentityRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "identity is required"}}
	case errors.Is(err, model.ErrMalformedMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Malformed request"}}
	case errors.Is(err, model.ErrCoordinatorStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeSessionUnavailable, "Session is not available"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
