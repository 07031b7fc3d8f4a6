// Package respcache stores rendered dashboard responses in Redis for a
// short time. Without Redis every lookup misses.
package respcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"folio/internal/config"
)

const keyPrefix = "folio:data:"

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 2 * time.Second

// Cache holds encoded responses by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// DataKey names the cached response of one metric over one range.
func DataKey(metric, rangeLabel string) string {
	return keyPrefix + metric + ":" + rangeLabel
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }

// Redis is a Cache backed by a go-redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// New returns a Redis cache when FOLIO_REDIS_URL is set and reachable,
// otherwise Noop. Failures are logged and never fatal.
func New(cfg *config.Config, logger *slog.Logger) Cache {
	if cfg.RedisURL == "" || cfg.DataCacheTTL() <= 0 {
		return Noop{}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid redis URL, response cache disabled", slog.Any("error", err))
		return Noop{}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, response cache disabled",
			slog.String("addr", opts.Addr),
			slog.Any("error", err))
		client.Close()
		return Noop{}
	}

	logger.Info("Response cache enabled",
		slog.String("addr", opts.Addr),
		slog.Duration("ttl", cfg.DataCacheTTL()))
	return NewRedis(client, cfg.DataCacheTTL())
}
