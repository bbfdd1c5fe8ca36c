package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/registry"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, registry.ErrValidation):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, registry.ErrNotFound):
		jsonError(w, notFoundMsg, http.StatusNotFound)
	case errors.Is(err, registry.ErrUninitialized):
		jsonError(w, "database not initialized", http.StatusInternalServerError)
	case errors.Is(err, registry.ErrPersistence):
		log.Error().Err(err).Msg("persistence failure")
		jsonError(w, "failed to save", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Msg("unexpected error")
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
