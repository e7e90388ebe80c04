package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCountTTL bounds how stale a cached count can get if an
	// invalidation is lost
	DefaultCountTTL = 30 * time.Second

	countCacheKey = CacheKeyPrefix + "comments:count"
)

// CountCache holds the last {total, active} answer. Failures are treated as
// misses; the store remains the source of truth.
type CountCache interface {
	Get(ctx context.Context) (*models.CommentCount, bool)
	Set(ctx context.Context, count models.CommentCount)
	Invalidate(ctx context.Context)
}

type noCountCache struct{}

func (noCountCache) Get(context.Context) (*models.CommentCount, bool) { return nil, false }
func (noCountCache) Set(context.Context, models.CommentCount)         {}
func (noCountCache) Invalidate(context.Context)                       {}

// RedisCountCache stores the count as JSON under a single key.
type RedisCountCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCountCache(client *redis.Client, ttl time.Duration) *RedisCountCache {
	if ttl <= 0 {
		ttl = DefaultCountTTL
	}
	return &RedisCountCache{client: client, ttl: ttl}
}

func (c *RedisCountCache) Get(ctx context.Context) (*models.CommentCount, bool) {
	val, err := c.client.Get(ctx, countCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Msg("count cache read failed")
		}
		return nil, false
	}

	var count models.CommentCount
	if err := json.Unmarshal([]byte(val), &count); err != nil {
		return nil, false
	}
	return &count, true
}

func (c *RedisCountCache) Set(ctx context.Context, count models.CommentCount) {
	data, err := json.Marshal(count)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, countCacheKey, data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Msg("count cache write failed")
	}
}

func (c *RedisCountCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, countCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("count cache invalidation failed")
	}
}
