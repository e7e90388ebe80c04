// Package identity adapts external account services (sign up, password login,
// sign out, token lookup) to one Provider interface.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
)

// SessionDuration is how long an issued access token stays valid.
const SessionDuration = 7 * 24 * time.Hour

// ErrUnavailable wraps failures to reach the identity service at all.
var ErrUnavailable = errors.New("identity provider unavailable")

// Error is a refusal from the identity service (bad credentials, duplicate
// account). Message is meant to be shown to the caller as-is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Session is the result of a successful password login.
type Session struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type Provider interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Logout revokes token. Unknown or empty tokens are not an error.
	Logout(ctx context.Context, token string) error
	// GetUser resolves token to its user, or (nil, nil) when the token is
	// absent, expired or invalid. Errors mean the provider could not answer.
	GetUser(ctx context.Context, token string) (*models.User, error)
}
