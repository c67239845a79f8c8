// Package http provides the HTTP handlers of the dashboard API and the
// device ingestion endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/middleware"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// sessionMaxAge matches the absolute session lifetime, in seconds.
const sessionMaxAge = 24 * 60 * 60

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account. It returns common.ErrConflict when the
	// username or email is taken and common.ErrInvalidRequest for empty fields.
	Register(ctx context.Context, username, email, password string) (*models.Account, error)
	// Login verifies credentials and returns a new session token.
	Login(ctx context.Context, username, password string) (string, error)
	// Logout invalidates the session token.
	Logout(ctx context.Context, token string) error
	// Check reports whether token belongs to a live session.
	Check(ctx context.Context, token string) (string, bool, error)
}

// AuthHandler handles HTTP requests for registration, login and sessions.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// SecureCookie marks the session cookie Secure. Enable behind TLS.
	SecureCookie bool
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
// A taken username or email is reported as 400 "User exists".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	_, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Registered successfully")
	case errors.Is(err, common.ErrConflict):
		writeMessage(w, http.StatusBadRequest, "User exists")
	case errors.Is(err, common.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, "Invalid request")
	default:
		internalError(w)
	}
}

// Login handles POST /api/login. On success it sets the session cookie.
// Every credential mismatch yields the same 401 "Invalid credentials".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		internalError(w)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, sessionMaxAge))
	writeMessage(w, http.StatusOK, "Login successful")
}

// Logout handles POST /api/logout. It destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.AuthService.Logout(r.Context(), c.Value); err != nil {
			internalError(w)
			return
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	writeMessage(w, http.StatusOK, "Logged out")
}

// Check handles GET /api/auth/check.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if c, err := r.Cookie(middleware.SessionCookie); err == nil {
		_, ok, err := h.AuthService.Check(r.Context(), c.Value)
		if err != nil {
			internalError(w)
			return
		}
		authenticated = ok
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
