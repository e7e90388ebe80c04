package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/middleware"
	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/rs/zerolog/log"
)

// PostCommentRequest is the body of an authenticated post.
type PostCommentRequest struct {
	Content string `json:"content"`
}

// AnonymousCommentRequest is the body of a post made without an account.
type AnonymousCommentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type CommentHandler struct {
	comments *services.CommentService
	timeout  time.Duration
}

func NewCommentHandler(comments *services.CommentService, timeout time.Duration) *CommentHandler {
	return &CommentHandler{comments: comments, timeout: timeout}
}

func (h *CommentHandler) upstream(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// fail maps service errors to status codes. Upstream detail is logged, not returned.
func fail(w http.ResponseWriter, err error, message string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, CommentsResponse{Message: verr.Message})
	case errors.Is(err, services.ErrAnonymousDisabled):
		writeJSON(w, http.StatusForbidden, CommentsResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Msg(message)
		writeJSON(w, http.StatusInternalServerError, CommentsResponse{Message: message})
	}
}

func postedMessage(c *models.Comment, active string) string {
	if c.Status == models.CommentStatusPending {
		return "Comment received and awaiting review"
	}
	return active
}

// parseLimit reads the leading integer of s, so "3abc" is 3. Input without
// one yields 0, which the service maps to the default.
func parseLimit(s string) int {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n <= services.MaxLatestLimit {
			n = n*10 + int(s[i]-'0')
		}
	}
	if neg {
		return -n
	}
	return n
}

// Latest handles GET /api/comments/latest?limit=N
func (h *CommentHandler) Latest(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	ctx, cancel := h.upstream(r)
	defer cancel()

	comments, err := h.comments.ListLatest(ctx, limit)
	if err != nil {
		fail(w, err, "failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Success: true, Data: comments})
}

// All handles GET /api/comments/allcomments
func (h *CommentHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.upstream(r)
	defer cancel()

	comments, err := h.comments.ListAll(ctx)
	if err != nil {
		fail(w, err, "failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Success: true, Data: comments})
}

// Post handles POST /api/comments/postcomments behind RequireAuth.
func (h *CommentHandler) Post(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "please log in"})
		return
	}

	var req PostCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, CommentsResponse{Message: "invalid request body"})
		return
	}

	ctx, cancel := h.upstream(r)
	defer cancel()

	comment, err := h.comments.SubmitAuthenticated(ctx, user, req.Content)
	if err != nil {
		fail(w, err, "failed to save comment")
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Success: true, Message: postedMessage(comment, "Comment posted"), Data: comment})
}

// PostAnonymous handles POST /api/comments
func (h *CommentHandler) PostAnonymous(w http.ResponseWriter, r *http.Request) {
	var req AnonymousCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, CommentsResponse{Message: "invalid request body"})
		return
	}

	ctx, cancel := h.upstream(r)
	defer cancel()

	comment, err := h.comments.SubmitAnonymous(ctx, req.Name, req.Email, req.Message)
	if err != nil {
		fail(w, err, "failed to save comment")
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Success: true, Message: postedMessage(comment, "Thanks for your feedback"), Data: comment})
}

// Count handles GET /api/comments/count
func (h *CommentHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.upstream(r)
	defer cancel()

	count, err := h.comments.Count(ctx)
	if err != nil {
		fail(w, err, "failed to count comments")
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Success: true, Data: count})
}
