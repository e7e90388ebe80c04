package services

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/identity"
)

// SessionManager carries the identity provider's access token in an
// HTTP-only cookie.
type SessionManager struct {
	cookieName string
	secure     bool
	maxAge     time.Duration
}

// NewSessionManager returns a manager for the named cookie. secure should be
// true in production so the cookie is only sent over HTTPS.
func NewSessionManager(cookieName string, secure bool) *SessionManager {
	return &SessionManager{
		cookieName: cookieName,
		secure:     secure,
		maxAge:     identity.SessionDuration,
	}
}

// Issue sets the session cookie to token.
func (m *SessionManager) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		Expires:  time.Now().Add(m.maxAge),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the token from the request cookie, or "" when absent.
func (m *SessionManager) Read(r *http.Request) string {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Clear removes the session cookie from the client.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
