package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/investoriq/investoriq-api/pkg/storage"
)

// ErrInvalidBody is returned when a request body is not a single JSON object
var ErrInvalidBody = errors.New("request body must be a JSON object")

// statusForError maps errors to HTTP status codes. Anything unclassified is a
// store failure and reports 500.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	case storage.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// jsonError writes a JSON error response
func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}
