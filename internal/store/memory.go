package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/google/uuid"
)

// MemoryStore keeps comments in process memory. Data is lost on restart, so it
// is only selected explicitly (tests, local demos).
type MemoryStore struct {
	mu       sync.RWMutex
	comments []models.Comment // insertion order, oldest first
	last     time.Time

	maxEntries int
	keep       int
	now        func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCap trims the store to the newest keep comments once it holds more than
// max. keep is clamped to (0, max]; a max of zero or less disables trimming.
func WithCap(max, keep int) MemoryOption {
	return func(s *MemoryStore) {
		if keep <= 0 || keep > max {
			keep = max
		}
		s.maxEntries = max
		s.keep = keep
	}
}

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Insert(_ context.Context, c models.Comment) (*models.Comment, error) {
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()

	// created_at must be strictly increasing so newest-first order is total
	createdAt := s.now().UTC()
	if !createdAt.After(s.last) {
		createdAt = s.last.Add(time.Microsecond)
	}
	s.last = createdAt
	c.CreatedAt = createdAt

	s.comments = append(s.comments, c)

	if s.maxEntries > 0 && len(s.comments) > s.maxEntries {
		trimmed := make([]models.Comment, s.keep)
		copy(trimmed, s.comments[len(s.comments)-s.keep:])
		s.comments = trimmed
	}

	stored := cloneComment(c)
	return &stored, nil
}

func (s *MemoryStore) QueryLatest(_ context.Context, limit int, status models.CommentStatus) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0, limit)
	for i := len(s.comments) - 1; i >= 0 && len(out) < limit; i-- {
		if s.comments[i].Status == status {
			out = append(out, cloneComment(s.comments[i]))
		}
	}
	return out, nil
}

func (s *MemoryStore) QueryAll(_ context.Context, orderDesc bool) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0, len(s.comments))
	if orderDesc {
		for i := len(s.comments) - 1; i >= 0; i-- {
			out = append(out, cloneComment(s.comments[i]))
		}
		return out, nil
	}
	for _, c := range s.comments {
		out = append(out, cloneComment(c))
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context, status *models.CommentStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == nil {
		return int64(len(s.comments)), nil
	}
	var n int64
	for _, c := range s.comments {
		if c.Status == *status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func cloneComment(c models.Comment) models.Comment {
	if c.AuthorID != nil {
		v := *c.AuthorID
		c.AuthorID = &v
	}
	if c.DisplayName != nil {
		v := *c.DisplayName
		c.DisplayName = &v
	}
	return c
}
