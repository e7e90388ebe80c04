package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/store"
)

type failingStore struct{ store.CommentStore }

var errBoom = errors.New("boom")

func (failingStore) Insert(context.Context, models.Comment) (*models.Comment, error) {
	return nil, errBoom
}

func (failingStore) QueryLatest(context.Context, int, models.CommentStatus) ([]models.Comment, error) {
	return nil, errBoom
}

func (failingStore) Count(context.Context, *models.CommentStatus) (int64, error) {
	return 0, errBoom
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []FeedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e FeedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type memoryCountCache struct {
	count       *models.CommentCount
	invalidated int
}

func (c *memoryCountCache) Get(context.Context) (*models.CommentCount, bool) {
	if c.count == nil {
		return nil, false
	}
	cp := *c.count
	return &cp, true
}

func (c *memoryCountCache) Set(_ context.Context, count models.CommentCount) { c.count = &count }

func (c *memoryCountCache) Invalidate(context.Context) {
	c.count = nil
	c.invalidated++
}

func TestSubmitAuthenticated(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCommentService(st)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "a@example.com"}

	got, err := svc.SubmitAuthenticated(ctx, user, "  hello  ")
	if err != nil {
		t.Fatalf("SubmitAuthenticated() error = %v", err)
	}
	if got.Content != "hello" {
		t.Errorf("content = %q, want %q", got.Content, "hello")
	}
	if got.Status != models.CommentStatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
	if got.AuthorID == nil || *got.AuthorID != "user-1" {
		t.Errorf("author_id = %v, want user-1", got.AuthorID)
	}
	if got.DisplayName != nil {
		t.Errorf("display_name = %v, want nil", *got.DisplayName)
	}

	n, _ := st.Count(ctx, nil)
	if n != 1 {
		t.Errorf("stored %d comments, want 1", n)
	}
}

func TestSubmitValidation(t *testing.T) {
	user := &models.User{ID: "user-1"}
	long := strings.Repeat("x", models.MaxCommentLength+1)

	tests := []struct {
		name    string
		submit  func(*CommentService) error
		wantMsg string
	}{
		{"empty content", func(s *CommentService) error {
			_, err := s.SubmitAuthenticated(context.Background(), user, "")
			return err
		}, "content is required"},
		{"whitespace content", func(s *CommentService) error {
			_, err := s.SubmitAuthenticated(context.Background(), user, " \t\n ")
			return err
		}, "content is required"},
		{"content too long", func(s *CommentService) error {
			_, err := s.SubmitAuthenticated(context.Background(), user, long)
			return err
		}, "content must not exceed 500 characters"},
		{"anonymous without name", func(s *CommentService) error {
			_, err := s.SubmitAnonymous(context.Background(), "  ", "", "hi")
			return err
		}, "name and message are required"},
		{"anonymous without message", func(s *CommentService) error {
			_, err := s.SubmitAnonymous(context.Background(), "Ann", "", "   ")
			return err
		}, "name and message are required"},
		{"anonymous too long", func(s *CommentService) error {
			_, err := s.SubmitAnonymous(context.Background(), "Ann", "", long)
			return err
		}, "content must not exceed 500 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			err := tt.submit(NewCommentService(st))

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if verr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", verr.Message, tt.wantMsg)
			}
			if n, _ := st.Count(context.Background(), nil); n != 0 {
				t.Errorf("stored %d comments, want 0", n)
			}
		})
	}
}

func TestSubmitCountsRunesNotBytes(t *testing.T) {
	svc := NewCommentService(store.NewMemoryStore())
	content := strings.Repeat("é", models.MaxCommentLength)

	if _, err := svc.SubmitAuthenticated(context.Background(), &models.User{ID: "u"}, content); err != nil {
		t.Fatalf("SubmitAuthenticated() error = %v", err)
	}
}

func TestSubmitAnonymous(t *testing.T) {
	svc := NewCommentService(store.NewMemoryStore())

	got, err := svc.SubmitAnonymous(context.Background(), " Ann ", " ann@example.com ", " nice site ")
	if err != nil {
		t.Fatalf("SubmitAnonymous() error = %v", err)
	}
	if got.DisplayName == nil || *got.DisplayName != "Ann" {
		t.Errorf("display_name = %v, want Ann", got.DisplayName)
	}
	if got.Email != "ann@example.com" || got.Content != "nice site" {
		t.Errorf("comment = %+v", got)
	}
	if got.AuthorID != nil {
		t.Errorf("author_id = %v, want nil", *got.AuthorID)
	}
}

func TestSubmitAnonymousDisabled(t *testing.T) {
	svc := NewCommentService(store.NewMemoryStore(), WithAnonymous(false))

	_, err := svc.SubmitAnonymous(context.Background(), "Ann", "", "hi")
	if !errors.Is(err, ErrAnonymousDisabled) {
		t.Fatalf("error = %v, want ErrAnonymousDisabled", err)
	}
}

func TestListLatest(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCommentService(st)
	ctx := context.Background()
	user := &models.User{ID: "u"}

	for _, c := range []string{"one", "two", "three", "four"} {
		if _, err := svc.SubmitAuthenticated(ctx, user, c); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := st.Insert(ctx, models.Comment{Content: "hidden", Status: models.CommentStatusPending}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ListLatest(ctx, 3)
	if err != nil {
		t.Fatalf("ListLatest() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []string{"four", "three", "two"}
	for i := range got {
		if got[i].Content != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Content, want[i])
		}
		if i > 0 && !got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("got[%d] not strictly older than got[%d]", i, i-1)
		}
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 5 || all[0].Content != "hidden" {
		t.Errorf("ListAll() = %d items, first %q", len(all), all[0].Content)
	}
}

func TestListLatestEmptyIsNotNil(t *testing.T) {
	svc := NewCommentService(store.NewMemoryStore())

	got, err := svc.ListLatest(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListLatest() = %#v, want empty slice", got)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, DefaultLatestLimit},
		{0, DefaultLatestLimit},
		{1, 1},
		{42, 42},
		{MaxLatestLimit, MaxLatestLimit},
		{MaxLatestLimit + 1, MaxLatestLimit},
	}
	for _, tt := range tests {
		if got := NormalizeLimit(tt.in); got != tt.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCommentService(st)
	ctx := context.Background()

	got, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if got.Total != 0 || got.Active != 0 {
		t.Errorf("Count() = %+v, want zeros", got)
	}

	st.Insert(ctx, models.Comment{Content: "a", Status: models.CommentStatusRejected})
	svc.SubmitAuthenticated(ctx, &models.User{ID: "u"}, "b")

	got, err = svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if got.Total != 2 || got.Active != 1 {
		t.Errorf("Count() = %+v, want total 2 active 1", got)
	}
}

func TestCountUsesCache(t *testing.T) {
	cache := &memoryCountCache{}
	svc := NewCommentService(store.NewMemoryStore(), WithCountCache(cache))
	ctx := context.Background()

	if _, err := svc.Count(ctx); err != nil {
		t.Fatal(err)
	}
	if cache.count == nil {
		t.Fatal("Count() did not populate the cache")
	}

	cache.count = &models.CommentCount{Total: 7, Active: 3}
	got, _ := svc.Count(ctx)
	if got.Total != 7 {
		t.Errorf("Count() = %+v, want cached value", got)
	}

	if _, err := svc.SubmitAuthenticated(ctx, &models.User{ID: "u"}, "hi"); err != nil {
		t.Fatal(err)
	}
	if cache.invalidated != 1 {
		t.Errorf("invalidated %d times, want 1", cache.invalidated)
	}
	got, _ = svc.Count(ctx)
	if got.Total != 1 || got.Active != 1 {
		t.Errorf("Count() after submit = %+v", got)
	}
}

// racingStore calls during once, between the active and total counts.
type racingStore struct {
	*store.MemoryStore
	during func()
}

func (s *racingStore) Count(ctx context.Context, status *models.CommentStatus) (int64, error) {
	n, err := s.MemoryStore.Count(ctx, status)
	if status != nil && s.during != nil {
		during := s.during
		s.during = nil
		during()
	}
	return n, err
}

func TestCountSkipsCacheWhenInsertRaces(t *testing.T) {
	cache := &memoryCountCache{}
	st := &racingStore{MemoryStore: store.NewMemoryStore()}
	svc := NewCommentService(st, WithCountCache(cache))
	ctx := context.Background()

	st.during = func() {
		if _, err := svc.SubmitAnonymous(ctx, "Ann", "", "hi"); err != nil {
			t.Error(err)
		}
	}
	if _, err := svc.Count(ctx); err != nil {
		t.Fatal(err)
	}
	if cache.count != nil {
		t.Fatalf("cached %+v computed across an insert", cache.count)
	}

	got, err := svc.Count(ctx)
	if err != nil || got.Total != 1 || got.Active != 1 {
		t.Fatalf("Count() = %+v, %v", got, err)
	}
	if cache.count == nil || cache.count.Active != 1 {
		t.Errorf("cache = %+v, want fresh count", cache.count)
	}
}

func TestSubmitPublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewCommentService(store.NewMemoryStore(), WithPublisher(pub))

	c, err := svc.SubmitAnonymous(context.Background(), "Ann", "", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	e := pub.events[0]
	if e.Type != EventCommentCreated || e.Comment.ID != c.ID {
		t.Errorf("event = %+v", e)
	}
}

func TestStoreErrorsAreUpstream(t *testing.T) {
	svc := NewCommentService(failingStore{})
	ctx := context.Background()

	_, err := svc.SubmitAuthenticated(ctx, &models.User{ID: "u"}, "hi")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("SubmitAuthenticated() error = %v, want ErrUpstream", err)
	}
	if _, err := svc.ListLatest(ctx, 5); !errors.Is(err, ErrUpstream) {
		t.Errorf("ListLatest() error = %v, want ErrUpstream", err)
	}
	if _, err := svc.Count(ctx); !errors.Is(err, ErrUpstream) {
		t.Errorf("Count() error = %v, want ErrUpstream", err)
	}
}
