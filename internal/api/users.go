package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/goodfinds/goodfinds/internal/store"
)

// UsersHandler handles user profile endpoints.
type UsersHandler struct {
	DB *sql.DB
}

// GetReputation handles GET /api/users/{id}/reputation. Users without
// reviews get the zero-valued summary, never an error.
func (h *UsersHandler) GetReputation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	rep, err := store.GetReputation(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

// Me handles GET /api/users/me, returning the caller's profile.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}
