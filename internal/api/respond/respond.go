// Package respond writes the JSON bodies shared by every HTTP endpoint.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Error   string              `json:"error"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response body")
	}
}

// Message writes {"error": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// InternalError writes the generic 500 body.
func InternalError(w http.ResponseWriter) {
	Message(w, http.StatusInternalServerError, "Internal server error")
}

// Error translates err into a response. Only *apperr.Error messages reach the
// client; anything else becomes a generic 500.
func Error(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		InternalError(w)
		return
	}
	status := apperr.HTTPStatus(e)
	if status == http.StatusInternalServerError {
		InternalError(w)
		return
	}
	JSON(w, status, ErrorBody{Error: e.Message, Details: e.Details})
}
