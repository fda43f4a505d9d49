package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/goodfinds/goodfinds/internal/auth"
	"github.com/goodfinds/goodfinds/internal/model"
	"github.com/goodfinds/goodfinds/internal/store"
)

// AuthHandler handles registration and authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username, email and password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Email, string(hash))
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("user registered", "user", user.Username)
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		storeError(w, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Email, user.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by revoking the token's JTI.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, string(hash)); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("user changed password", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
