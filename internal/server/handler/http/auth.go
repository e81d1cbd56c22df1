// Package http provides the mock backend's HTTP handlers and routing.
// Responses use the envelope the admin client expects: {"data": ...} for
// single resources, {"data": [...], "pagination": {...}} for lists and
// {"message": "..."} for errors.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/middleware"
	"github.com/atinyakov/MineAdmin/internal/models"
)

// AuthService defines the authentication operations required by
// AuthHandler.
type AuthService interface {
	Login(ctx context.Context, email, password string) (models.User, models.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfileUpdate) (models.User, error)
}

// AuthHandler handles login, logout and the caller's own profile.
type AuthHandler struct {
	AuthService AuthService
	// SecureCookies marks the session cookies Secure.
	SecureCookies bool
	Log           *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      models.User `json:"user"`
	SessionID string      `json:"sessionId"`
}

type userResponse struct {
	User models.User `json:"user"`
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if token == "" {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	indicator := ""
	if token != "" {
		indicator = "1"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.IndicatorCookieName,
		Value:    indicator,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// Login handles POST /api/auth/login. On success the session token is set
// as an HTTP-only cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, sess, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	h.setSessionCookies(w, sess.Token, sess.ExpiresAt)
	if h.Log != nil {
		h.Log.Info("user logged in", zap.String("user_id", u.ID))
	}
	writeData(w, http.StatusOK, loginResponse{User: u, SessionID: sess.Token})
}

// Logout handles POST /api/auth/logout. It always clears the cookies, even
// when the session is already gone.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), middleware.SessionToken(r)); err != nil && h.Log != nil {
		h.Log.Warn("failed to delete session", zap.Error(err))
	}
	h.setSessionCookies(w, "", time.Time{})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeData(w, http.StatusOK, userResponse{User: u})
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var patch models.ProfileUpdate
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.AuthService.UpdateProfile(r.Context(), u.ID, patch)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, userResponse{User: updated})
}
