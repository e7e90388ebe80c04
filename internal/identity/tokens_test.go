package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
)

func newRedisTokenStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenStore(client), mr
}

func TestRedisTokenStore(t *testing.T) {
	s, mr := newRedisTokenStore(t)
	ctx := context.Background()
	user := models.User{ID: "u1", Email: "a@example.com"}

	token, err := s.Create(ctx, user, time.Hour)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ttl := mr.TTL(SessionKeyPrefix + token); ttl != time.Hour {
		t.Errorf("TTL = %v, want %v", ttl, time.Hour)
	}

	got, err := s.Get(ctx, token)
	if err != nil || got == nil || got.ID != "u1" || got.Email != "a@example.com" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	if err := s.Delete(ctx, token); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists(SessionKeyPrefix + token) {
		t.Error("token key still present after Delete")
	}
	if got, err := s.Get(ctx, token); err != nil || got != nil {
		t.Errorf("Get() after Delete = %+v, %v", got, err)
	}
}

func TestRedisTokenStoreExpiry(t *testing.T) {
	s, mr := newRedisTokenStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx, models.User{ID: "u1"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	mr.FastForward(time.Minute + time.Second)

	if got, err := s.Get(ctx, token); err != nil || got != nil {
		t.Errorf("Get() after expiry = %+v, %v; want nil, nil", got, err)
	}
}

func TestRedisTokenStoreEdgeCases(t *testing.T) {
	s, mr := newRedisTokenStore(t)
	ctx := context.Background()

	if got, err := s.Get(ctx, ""); err != nil || got != nil {
		t.Errorf("Get(\"\") = %+v, %v", got, err)
	}
	if err := s.Delete(ctx, ""); err != nil {
		t.Errorf("Delete(\"\") error = %v", err)
	}

	mr.Set(SessionKeyPrefix+"corrupt", "{not json")
	if got, err := s.Get(ctx, "corrupt"); err != nil || got != nil {
		t.Errorf("Get() on corrupt entry = %+v, %v", got, err)
	}

	mr.Close()
	if _, err := s.Get(ctx, "anything"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() with redis down error = %v, want ErrUnavailable", err)
	}
	if _, err := s.Create(ctx, models.User{ID: "u1"}, time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create() with redis down error = %v, want ErrUnavailable", err)
	}
}
