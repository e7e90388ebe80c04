package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/pkg/utils"
)

const minPasswordLength = 8

// LocalProvider is a self-hosted identity service: accounts in a UserStore,
// argon2id password hashes, opaque tokens in a TokenStore.
type LocalProvider struct {
	users  UserStore
	tokens TokenStore
	ttl    time.Duration
	now    func() time.Time
}

func NewLocalProvider(users UserStore, tokens TokenStore) *LocalProvider {
	return &LocalProvider{
		users:  users,
		tokens: tokens,
		ttl:    SessionDuration,
		now:    time.Now,
	}
}

// NewMemoryProvider returns a LocalProvider that keeps everything in memory.
func NewMemoryProvider() *LocalProvider {
	return NewLocalProvider(NewMemoryUserStore(), NewMemoryTokenStore())
}

func (p *LocalProvider) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, &Error{Status: http.StatusBadRequest, Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < minPasswordLength {
		return nil, &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("Password should be at least %d characters", minPasswordLength)}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	rec, err := p.users.Create(ctx, email, hash)
	if errors.Is(err, ErrEmailTaken) {
		return nil, &Error{Status: http.StatusBadRequest, Message: "User already registered"}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	user := rec.User
	return &user, nil
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := &Error{Status: http.StatusBadRequest, Message: "Invalid login credentials"}

	rec, err := p.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	valid, err := utils.VerifyPassword(password, rec.PasswordHash)
	if err != nil || !valid {
		return nil, invalid
	}

	token, err := p.tokens.Create(ctx, rec.User, p.ttl)
	if err != nil {
		return nil, err
	}
	user := rec.User
	return &Session{
		AccessToken: token,
		ExpiresAt:   p.now().Add(p.ttl),
		User:        &user,
	}, nil
}

func (p *LocalProvider) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return p.tokens.Delete(ctx, token)
}

func (p *LocalProvider) GetUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return p.tokens.Get(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
