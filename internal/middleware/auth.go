package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/commentwall-backend/internal/identity"
	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user attached by RequireAuth, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// RequireAuth admits only requests whose session cookie resolves to a user.
// A stale cookie is cleared. Provider failures are answered with 500; the
// request is never let through unauthenticated.
func RequireAuth(provider identity.Provider, sessions *services.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessions.Read(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "please log in")
				return
			}

			user, err := provider.GetUser(r.Context(), token)
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to resolve session")
				writeError(w, http.StatusInternalServerError, "authentication error")
				return
			}
			if user == nil {
				sessions.Clear(w)
				writeError(w, http.StatusUnauthorized, "session expired, please log in again")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "please log in")
				return
			}
			if !isAdmin(user.Email) {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
