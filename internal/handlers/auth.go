package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/identity"
	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthRequest is the body of register and login.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by a successful register or login.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// UserResponse always carries the user key, null when signed out.
type UserResponse struct {
	User *models.User `json:"user"`
}

// MessageResponse is returned by logout.
type MessageResponse struct {
	Message string `json:"message"`
}

type AuthHandler struct {
	provider identity.Provider
	sessions *services.SessionManager
	timeout  time.Duration
}

func NewAuthHandler(provider identity.Provider, sessions *services.SessionManager, timeout time.Duration) *AuthHandler {
	return &AuthHandler{provider: provider, sessions: sessions, timeout: timeout}
}

func (h *AuthHandler) upstream(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (AuthRequest, bool) {
	var req AuthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email and password are required"})
		return req, false
	}
	return req, true
}

// providerFailure answers a failed provider call. Refusals keep the
// provider's own message; anything else is logged and hidden.
func providerFailure(w http.ResponseWriter, err error, op string) {
	var refusal *identity.Error
	if errors.As(err, &refusal) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: refusal.Message})
		return
	}
	log.Error().Err(err).Str("op", op).Msg("identity provider call failed")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.upstream(r)
	defer cancel()

	user, err := h.provider.Register(ctx, req.Email, req.Password)
	if err != nil {
		providerFailure(w, err, "register")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("user registered")
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Registration successful, please check your email to verify your account",
		User:    user,
	})
}

// Login handles POST /api/auth/login and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.upstream(r)
	defer cancel()

	session, err := h.provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		providerFailure(w, err, "login")
		return
	}

	h.sessions.Issue(w, session.AccessToken)
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    session.User,
	})
}

// Logout handles POST /api/auth/logout. It succeeds even without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.sessions.Read(r); token != "" {
		ctx, cancel := h.upstream(r)
		defer cancel()

		if err := h.provider.Logout(ctx, token); err != nil {
			log.Warn().Err(err).Msg("failed to revoke session at identity provider")
		}
	}

	h.sessions.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// CurrentUser handles GET /api/auth/user. It never fails: an absent or
// invalid session answers {"user":null}.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	token := h.sessions.Read(r)
	if token == "" {
		writeJSON(w, http.StatusOK, UserResponse{})
		return
	}

	ctx, cancel := h.upstream(r)
	defer cancel()

	user, err := h.provider.GetUser(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve current user")
		writeJSON(w, http.StatusOK, UserResponse{})
		return
	}
	if user == nil {
		h.sessions.Clear(w)
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}
