package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goodfinds/goodfinds/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps a store error to its HTTP status. Errors that don't wrap a
// domain kind are persistence failures and surface as 503; they are logged
// but never masked as domain errors.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidState),
		errors.Is(err, store.ErrInvalidArgument),
		errors.Is(err, store.ErrSelfClaim):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("store error", "error", err)
		jsonError(w, http.StatusServiceUnavailable, "service unavailable")
	}
}
