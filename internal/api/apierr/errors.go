package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
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
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotAdmin          = "NOT_ADMIN"
	CodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	CodeReplayNotFound    = "REPLAY_NOT_FOUND"
	CodeTombstoned        = "IDENTIFIER_TOMBSTONED"
	CodeInternalError     = "INTERNAL_ERROR"
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

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
	case errors.Is(err, model.ErrReplayNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeReplayNotFound, "Replay not found"}}
	case errors.Is(err, model.ErrInvalidIdentifier):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidIdentifier, "Invalid identifier"}}
	case errors.Is(err, model.ErrIdentifierTombstoned):
		return &httpError{http.StatusGone, APIError{CodeTombstoned, "This identifier permanently deleted its account"}}
	case errors.Is(err, model.ErrNotAdmin):
		return &httpError{http.StatusForbidden, APIError{CodeNotAdmin, "Administrator access required"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
