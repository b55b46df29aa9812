package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisHub delivers events across server instances through Redis pub/sub.
// Each project has its own channel: <prefix>project:<id>.
type RedisHub struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisHub connects to redisURL and verifies the connection.
func NewRedisHub(ctx context.Context, redisURL, prefix string, logger *slog.Logger) (*RedisHub, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisHubWithClient(client, prefix, logger), nil
}

// NewRedisHubWithClient wraps an existing client
func NewRedisHubWithClient(client *redis.Client, prefix string, logger *slog.Logger) *RedisHub {
	return &RedisHub{client: client, prefix: prefix, logger: logger}
}

func (h *RedisHub) channel(projectID string) string {
	return h.prefix + "project:" + projectID
}

func (h *RedisHub) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := h.client.Publish(ctx, h.channel(ev.ProjectID), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (h *RedisHub) Subscribe(ctx context.Context, projectID string) (*Subscription, error) {
	pubsub := h.client.Subscribe(ctx, h.channel(projectID))
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to project %s: %w", projectID, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Event, subscriptionBuffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					h.logger.Warn("discarding malformed realtime payload",
						"channel", msg.Channel,
						"error", err,
					)
					continue
				}
				select {
				case out <- ev:
				default:
					h.logger.Warn("realtime subscriber full, dropping event",
						"project_id", ev.ProjectID,
						"event_id", ev.ID,
					)
				}
			}
		}
	}()

	return newSubscription(out, cancel), nil
}

// Close closes the underlying client, ending every subscription.
func (h *RedisHub) Close() error {
	return h.client.Close()
}
