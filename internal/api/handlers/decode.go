package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/tasktrack-be/internal/api/respond"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSON reads the request body into dst. The body must hold exactly one
// JSON value. On failure it writes the 400 response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
		}
	}
	if err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected malformed request body")
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
