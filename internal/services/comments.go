package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/commentwall-backend/internal/metrics"
	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLatestLimit = 5
	MaxLatestLimit     = 100
)

// CommentService validates submissions and shapes reads over a CommentStore.
type CommentService struct {
	store          store.CommentStore
	cache          CountCache
	feed           Publisher
	moderator      *Moderator
	allowAnonymous bool

	// bumped on every insert; Count skips caching results that raced one
	writes atomic.Uint64
}

type CommentOption func(*CommentService)

func WithCountCache(c CountCache) CommentOption {
	return func(s *CommentService) { s.cache = c }
}

func WithPublisher(p Publisher) CommentOption {
	return func(s *CommentService) { s.feed = p }
}

// WithModerator holds matching submissions as pending instead of active.
func WithModerator(m *Moderator) CommentOption {
	return func(s *CommentService) { s.moderator = m }
}

// WithAnonymous toggles posting without an account.
func WithAnonymous(allowed bool) CommentOption {
	return func(s *CommentService) { s.allowAnonymous = allowed }
}

func NewCommentService(st store.CommentStore, opts ...CommentOption) *CommentService {
	s := &CommentService{
		store:          st,
		cache:          noCountCache{},
		allowAnonymous: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitAuthenticated stores content posted by user.
func (s *CommentService) SubmitAuthenticated(ctx context.Context, user *models.User, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Message: "content is required"}
	}
	if err := checkLength(content); err != nil {
		return nil, err
	}

	authorID := user.ID
	return s.submit(ctx, models.Comment{
		Content:  content,
		AuthorID: &authorID,
		Status:   models.CommentStatusActive,
	}, "authenticated")
}

// SubmitAnonymous stores a message posted with a free-text name and email.
func (s *CommentService) SubmitAnonymous(ctx context.Context, name, email, message string) (*models.Comment, error) {
	if !s.allowAnonymous {
		return nil, ErrAnonymousDisabled
	}

	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)
	if name == "" || message == "" {
		return nil, &ValidationError{Message: "name and message are required"}
	}
	if err := checkLength(message); err != nil {
		return nil, err
	}

	return s.submit(ctx, models.Comment{
		Content:     message,
		DisplayName: &name,
		Email:       strings.TrimSpace(email),
		Status:      models.CommentStatusActive,
	}, "anonymous")
}

func checkLength(content string) error {
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return &ValidationError{Message: fmt.Sprintf("content must not exceed %d characters", models.MaxCommentLength)}
	}
	return nil
}

func (s *CommentService) submit(ctx context.Context, c models.Comment, mode string) (*models.Comment, error) {
	if s.moderator != nil {
		status, matched := s.moderator.Screen(c.Content)
		if status != models.CommentStatusActive {
			log.Info().Strs("terms", matched).Str("mode", mode).Msg("comment held for review")
		}
		c.Status = status
	}

	stored, err := s.store.Insert(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: insert comment: %v", ErrUpstream, err)
	}

	metrics.CommentsSubmitted.WithLabelValues(mode).Inc()
	s.writes.Add(1)
	s.cache.Invalidate(ctx)

	if s.feed != nil && stored.Status == models.CommentStatusActive {
		event := FeedEvent{Type: EventCommentCreated, Comment: stored, Timestamp: time.Now().UTC()}
		if err := s.feed.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("comment_id", stored.ID).Msg("failed to publish comment to live feed")
		}
	}
	return stored, nil
}

// NormalizeLimit maps absent or out-of-range limits onto [1, MaxLatestLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLatestLimit
	}
	if limit > MaxLatestLimit {
		return MaxLatestLimit
	}
	return limit
}

// ListLatest returns up to limit active comments, newest first.
func (s *CommentService) ListLatest(ctx context.Context, limit int) ([]models.Comment, error) {
	comments, err := s.store.QueryLatest(ctx, NormalizeLimit(limit), models.CommentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%w: query latest comments: %v", ErrUpstream, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// ListAll returns every comment regardless of status, newest first.
func (s *CommentService) ListAll(ctx context.Context) ([]models.Comment, error) {
	comments, err := s.store.QueryAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: query all comments: %v", ErrUpstream, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// Count returns the total and active comment counts.
func (s *CommentService) Count(ctx context.Context) (*models.CommentCount, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}

	gen := s.writes.Load()

	// Active first: comments are never deleted, so a concurrent insert can
	// only raise total, keeping active <= total.
	active := models.CommentStatusActive
	activeCount, err := s.store.Count(ctx, &active)
	if err != nil {
		return nil, fmt.Errorf("%w: count active comments: %v", ErrUpstream, err)
	}
	total, err := s.store.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: count comments: %v", ErrUpstream, err)
	}

	count := models.CommentCount{Total: total, Active: activeCount}
	if s.writes.Load() == gen {
		s.cache.Set(ctx, count)
	}
	return &count, nil
}

// Ping checks that the comment store is reachable.
func (s *CommentService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
