package handler

import (
	"net/http"

	"github.com/mcoot/liveclass/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeUnauthorizedAdmin  = apierr.CodeUnauthorizedAdmin
	CodeAdminNotConfigured = apierr.CodeAdminNotConfigured
	CodeSessionUnavailable = apierr.CodeSessionUnavailable
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}
