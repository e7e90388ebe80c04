package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/metrics"
	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	EventCommentCreated = "comment.created"

	// FeedChannel is the Redis pub/sub channel shared by all instances
	FeedChannel = "comments:feed"

	subscriberBuffer = 16
)

// FeedEvent is the payload pushed to live feed subscribers.
type FeedEvent struct {
	Type      string          `json:"type"`
	Comment   *models.Comment `json:"comment,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher delivers feed events.
type Publisher interface {
	Publish(ctx context.Context, event FeedEvent) error
}

// Hub fans events out to the WebSocket connections of this instance.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan FeedEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan FeedEvent]struct{})}
}

// Subscribe registers a listener. The returned func must be called to release it.
func (h *Hub) Subscribe() (<-chan FeedEvent, func()) {
	ch := make(chan FeedEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
			metrics.FeedSubscribers.Dec()
		})
	}
}

// Publish delivers event to local subscribers. Slow subscribers whose buffer
// is full miss the event.
func (h *Hub) Publish(_ context.Context, event FeedEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			log.Debug().Str("type", event.Type).Msg("feed subscriber buffer full, event dropped")
		}
	}
	return nil
}

// RedisFeed publishes events through Redis so every instance's Hub sees them.
type RedisFeed struct {
	client     *redis.Client
	hub        *Hub
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRedisFeed(client *redis.Client, hub *Hub) *RedisFeed {
	return &RedisFeed{client: client, hub: hub, minBackoff: time.Second, maxBackoff: 30 * time.Second}
}

func (f *RedisFeed) Publish(ctx context.Context, event FeedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, FeedChannel, data).Err()
}

// Run relays Redis messages into the local Hub until ctx is cancelled,
// resubscribing with backoff after errors.
func (f *RedisFeed) Run(ctx context.Context) {
	backoff := f.minBackoff

	for ctx.Err() == nil {
		pubsub := f.client.Subscribe(ctx, FeedChannel)
		log.Info().Str("channel", FeedChannel).Msg("live feed subscriber started")

		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Dur("backoff", backoff).Msg("live feed subscriber error")
				}
				break
			}
			backoff = f.minBackoff

			var event FeedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("failed to unmarshal feed event")
				continue
			}
			_ = f.hub.Publish(ctx, event)
		}
		pubsub.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > f.maxBackoff {
			backoff = f.maxBackoff
		}
	}
}
