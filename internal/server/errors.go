package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON body of every non-2xx API response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

func errInvalidParameter(message string) *APIError {
	return newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", message)
}

func errSourceUnavailable(message string) *APIError {
	return newAPIError(http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", message)
}

func errNoRowsMatched(message string) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, "NO_ROWS_MATCHED", message)
}

func errInternal(message string) *APIError {
	return newAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

var errTooManyRequests = newAPIError(http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
