package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/middleware"
	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/AnshRaj112/commentwall-backend/internal/store"
)

type brokenStore struct{ store.CommentStore }

func (brokenStore) Insert(context.Context, models.Comment) (*models.Comment, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) QueryLatest(context.Context, int, models.CommentStatus) ([]models.Comment, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Ping(context.Context) error { return errors.New("connection refused") }

func seed(t *testing.T, st *store.MemoryStore, n int) {
	t.Helper()
	svc := services.NewCommentService(st)
	for i := 0; i < n; i++ {
		if _, err := svc.SubmitAnonymous(context.Background(), "n", "", "m"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLatestLimitParsing(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, 8)
	h := NewCommentHandler(services.NewCommentService(st), time.Second)

	tests := []struct {
		query string
		want  int
	}{
		{"", services.DefaultLatestLimit},
		{"?limit=abc", services.DefaultLatestLimit},
		{"?limit=-3", services.DefaultLatestLimit},
		{"?limit=3", 3},
		{"?limit=1000", 8},
		{"?limit=3abc", 3},
		{"?limit=2.9", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/comments/latest"+tt.query, nil))

			var body struct {
				Success bool             `json:"success"`
				Data    []models.Comment `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if !body.Success || len(body.Data) != tt.want {
				t.Errorf("got %d comments, want %d", len(body.Data), tt.want)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"3abc", 3},
		{" 7", 7},
		{"+4", 4},
		{"-3", -3},
		{"12.5", 12},
		{"99999999999999999999999", 999},
	}
	for _, tt := range tests {
		if got := parseLimit(tt.in); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUpstreamFailureIsGeneric(t *testing.T) {
	h := NewCommentHandler(services.NewCommentService(brokenStore{}), time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/comments/postcomments", strings.NewReader(`{"content":"hi"}`))
	req = req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: "u"}))
	h.Post(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("upstream detail leaked: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/comments/latest", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("latest status = %d, want 500", rec.Code)
	}
}

func TestPostRejectsBadBody(t *testing.T) {
	h := NewCommentHandler(services.NewCommentService(store.NewMemoryStore()), time.Second)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"content":`},
		{"empty content", `{"content":"   "}`},
		{"oversized", `{"content":"` + strings.Repeat("a", maxBodyBytes) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/comments/postcomments", strings.NewReader(tt.body))
			req = req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: "u"}))
			h.Post(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnonymousDisabled(t *testing.T) {
	svc := services.NewCommentService(store.NewMemoryStore(), services.WithAnonymous(false))
	h := NewCommentHandler(svc, time.Second)

	rec := httptest.NewRecorder()
	h.PostAnonymous(rec, httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader(`{"name":"a","message":"b"}`)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHealthUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(brokenStore{}, time.Second)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSPABlocksTraversal(t *testing.T) {
	dir := t.TempDir()
	spa := NewSPA(dir, "index.html")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../../etc/passwd"
	spa.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (no index present)", rec.Code)
	}
}
