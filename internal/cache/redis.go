package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "destinations:"

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Redis keeps entries in Redis. The key TTL only reclaims space; freshness is
// judged by the caller from Entry.CreatedAt.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis store. A non-positive ttl selects DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Get retrieves the entry for key.
// Returns nil, nil on a cache miss (not an error).
func (r *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling cached entry for %s: %w", key, err)
	}

	return &entry, nil
}

// Set stores entry under key, replacing any previous value.
func (r *Redis) Set(ctx context.Context, key string, entry Entry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", key, err)
	}

	return nil
}

// Delete removes the entry for key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete for %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
