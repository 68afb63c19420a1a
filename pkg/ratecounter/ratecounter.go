// Package ratecounter tracks per-user request counts over a sliding window.
// The count feeds rate-limit rule facts; when Redis is unreachable the
// counter degrades to zero rather than failing the evaluation.
package ratecounter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "taskbe:reqcount:"

// Counter counts requests per user within a fixed window.
type Counter interface {
	// Hit records one request for the user and returns the count inside the
	// current window, including this hit.
	Hit(ctx context.Context, tenantID, userID int64) (int64, error)
	Close() error
}

// RedisCounter implements Counter on a Redis INCR with a window TTL.
type RedisCounter struct {
	client *redis.Client
	window time.Duration
	logger *slog.Logger
}

// NewRedisCounter connects to Redis and returns a counter. The connection is
// verified up front so a bad address fails at startup, not on first request.
func NewRedisCounter(ctx context.Context, logger *slog.Logger, addr string, window time.Duration) (*RedisCounter, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	if window <= 0 {
		window = time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "window", window)

	return &RedisCounter{client: client, window: window, logger: logger}, nil
}

func (c *RedisCounter) Hit(ctx context.Context, tenantID, userID int64) (int64, error) {
	key := fmt.Sprintf("%s%d:%d", keyPrefix, tenantID, userID)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment request counter: %w", err)
	}

	// First hit in the window starts the TTL clock.
	if count == 1 {
		err = c.client.Expire(ctx, key, c.window).Err()
		if err != nil {
			c.logger.WarnContext(ctx, "Failed to set counter expiry", "key", key, "error", err)
		}
	}

	return count, nil
}

func (c *RedisCounter) Close() error {
	return c.client.Close()
}

// NopCounter always reports zero. Used when no Redis address is configured.
type NopCounter struct{}

func (NopCounter) Hit(_ context.Context, _, _ int64) (int64, error) { return 0, nil }

func (NopCounter) Close() error { return nil }
