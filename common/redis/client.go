package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fanuel08/Medicine-project/common/config"

	"github.com/go-redis/redis/v8"
)

// Client alias so callers need not import go-redis directly
type Client = redis.Client

// NewRedisClient builds a client with short timeouts; Redis is never on the
// critical path of a request
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Connect creates a client and pings it, closing it again when unreachable
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := NewRedisClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Close closes client if it is non-nil
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
