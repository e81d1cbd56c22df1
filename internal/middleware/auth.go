// Package middleware provides HTTP middlewares for cookie session
// authentication, role checks and request logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/atinyakov/MineAdmin/internal/models"
)

const (
	// SessionCookieName is the HTTP-only cookie carrying the session token.
	SessionCookieName = "auth_token"
	// IndicatorCookieName is a script-readable cookie that only signals a
	// session exists.
	IndicatorCookieName = "auth_status"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user stored by SessionAuth.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// SessionToken returns the session cookie value, or "" when absent.
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SessionAuth rejects requests without a valid session cookie with 401 and
// stores the user in the request context otherwise.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := auth.Authenticate(r.Context(), SessionToken(r))
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireRole lets through users holding one of roles. Super admins pass
// every check. It must run after SessionAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !hasAnyRole(u, roles) {
				writeMessage(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyRole(u models.User, roles []models.Role) bool {
	held := []models.Role{u.Role}
	for _, ref := range u.Roles {
		held = append(held, models.Role(ref.Name))
	}
	for _, r := range held {
		if r == models.RoleSuperAdmin || (r != "" && slices.Contains(roles, r)) {
			return true
		}
	}
	return false
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
