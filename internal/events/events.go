package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChannelWakeword is the pub/sub channel wake-word detections are sent to.
const ChannelWakeword = "vani:wakeword"

// WakewordEvent is published for every keyword detection.
type WakewordEvent struct {
	ID         string    `json:"id"`
	Keyword    string    `json:"keyword"`
	Device     string    `json:"device,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}

// NewWakewordEvent stamps a detection with a fresh id.
func NewWakewordEvent(keyword, device string, at time.Time) WakewordEvent {
	return WakewordEvent{
		ID:         uuid.NewString(),
		Keyword:    keyword,
		Device:     device,
		DetectedAt: at.UTC(),
	}
}

// Publisher publishes wake-word events.
type Publisher interface {
	Publish(ctx context.Context, event WakewordEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, WakewordEvent) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes events on a redis channel.
type RedisPublisher struct {
	client  redisClient
	channel string
}

// NewRedisPublisher connects to redis at addr and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, password string) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPublisher{client: rdb, channel: ChannelWakeword}, nil
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, event WakewordEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal wakeword event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Close implements Publisher.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
