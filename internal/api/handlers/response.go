package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/Docshelf/internal/core"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{core.ErrValidation, http.StatusBadRequest},
	{core.ErrUnauthorized, http.StatusUnauthorized},
	{core.ErrForbidden, http.StatusForbidden},
	{core.ErrNotFound, http.StatusNotFound},
	{core.ErrUpstreamFetch, http.StatusBadRequest},
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to a status and writes {key: message}.
func writeError(w http.ResponseWriter, r *http.Request, key string, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{key: msg})
}

// classify returns the status for err and a message without the sentinel
// prefix.
func classify(err error) (int, string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusBadRequest, "file too large"
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			msg := strings.TrimPrefix(err.Error(), s.err.Error()+": ")
			return s.status, msg
		}
	}
	return http.StatusInternalServerError, err.Error()
}
