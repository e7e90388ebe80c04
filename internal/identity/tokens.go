package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/pkg/utils"
	"github.com/redis/go-redis/v9"
)

// SessionKeyPrefix is the Redis key prefix for access tokens
const SessionKeyPrefix = "session:"

// TokenStore maps opaque access tokens to the user they were issued for.
type TokenStore interface {
	Create(ctx context.Context, user models.User, ttl time.Duration) (string, error)
	// Get returns nil when the token is unknown or expired.
	Get(ctx context.Context, token string) (*models.User, error)
	Delete(ctx context.Context, token string) error
}

// RedisTokenStore keeps tokens in Redis with a TTL.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Create(ctx context.Context, user models.User, ttl time.Duration) (string, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, SessionKeyPrefix+token, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, nil
}

func (s *RedisTokenStore) Get(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	val, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		// A corrupt entry can never resolve; treat it as an invalid token
		return nil, nil
	}
	return &user, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, SessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

type memoryToken struct {
	user      models.User
	expiresAt time.Time
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryTokenStore) Create(_ context.Context, user models.User, ttl time.Duration) (string, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[token] = memoryToken{user: user, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryTokenStore) Get(_ context.Context, token string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.tokens, token)
		return nil, nil
	}
	user := entry.user
	return &user, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	return nil
}
