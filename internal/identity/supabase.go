package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
)

// SupabaseProvider talks to a Supabase project's auth (GoTrue) API.
type SupabaseProvider struct {
	client gotrue.Client
}

// NewSupabaseProvider builds a provider for the project at baseURL
// (e.g. https://xyz.supabase.co). A nil client keeps the library's default.
func NewSupabaseProvider(baseURL, apiKey string, client *http.Client) *SupabaseProvider {
	c := gotrue.New("", apiKey).WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1")
	if client != nil {
		c = c.WithClient(*client)
	}
	return &SupabaseProvider{client: c}
}

func toUser(id fmt.Stringer, email string) *models.User {
	return &models.User{ID: id.String(), Email: email}
}

func (p *SupabaseProvider) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := p.client.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, classify(err)
	}
	return toUser(resp.ID, resp.Email), nil
}

func (p *SupabaseProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, classify(err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without session", ErrUnavailable)
	}

	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if resp.ExpiresAt > 0 {
		expiresAt = time.Unix(int64(resp.ExpiresAt), 0)
	}
	return &Session{
		AccessToken: resp.AccessToken,
		ExpiresAt:   expiresAt,
		User:        toUser(resp.User.ID, resp.User.Email),
	}, nil
}

func (p *SupabaseProvider) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	err := p.client.WithToken(token).Logout()
	if err == nil || isInvalidToken(err) {
		// Already signed out or never valid
		return nil
	}
	return classify(err)
}

func (p *SupabaseProvider) GetUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := p.client.WithToken(token).GetUser()
	err = classify(err)
	if isInvalidToken(err) {
		return nil, nil
	}
	if err != nil {
		// Rate limits and other refusals say nothing about the token.
		var refusal *Error
		if errors.As(err, &refusal) {
			return nil, fmt.Errorf("%w: user lookup refused with %d: %s", ErrUnavailable, refusal.Status, refusal.Message)
		}
		return nil, err
	}
	return toUser(resp.ID, resp.Email), nil
}

// isInvalidToken reports whether the service rejected the token itself.
func isInvalidToken(err error) bool {
	var refusal *Error
	if !errors.As(classify(err), &refusal) {
		return false
	}
	switch refusal.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// gotrue-go reports non-success answers as "response status code NNN: <body>".
var statusPattern = regexp.MustCompile(`(?s)status code (\d{3})(?::\s*(.*))?`)

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// classify turns a client error into *Error for 4xx answers (carrying the
// service's message) and wraps everything else in ErrUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var refusal *Error
	if errors.As(err, &refusal) || errors.Is(err, ErrUnavailable) {
		return err
	}

	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	status, _ := strconv.Atoi(m[1])
	if status < 400 || status >= 500 {
		return fmt.Errorf("%w: auth service returned %d", ErrUnavailable, status)
	}

	var body gotrueError
	_ = json.Unmarshal([]byte(strings.TrimSpace(m[2])), &body)
	msg := body.text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}
