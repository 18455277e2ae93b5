// Package kvstore wraps Redis as a small JSON key-value store with TTL,
// shared by the chat history, the user profile cache and the
// cross-instance presence bridge.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MGeorge0116/ezchat-cam/internal/config"
)

var ErrNotFound = errors.New("key not found")

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying redis client for pub/sub use.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// SetJSON stores value as JSON at key. Zero ttl means no expiry.
func (s *RedisStore) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// GetJSON reads the JSON at key into dest. Returns ErrNotFound on a
// missing key.
func (s *RedisStore) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// LPushTrim prepends value (as JSON) to a list, trims it to limit
// entries and refreshes its TTL.
func (s *RedisStore) LPushTrim(ctx context.Context, key string, value interface{}, limit int64, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, limit-1)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// LRangeJSON reads up to limit JSON entries from the head of a list,
// invoking decode once per raw entry.
func (s *RedisStore) LRangeJSON(ctx context.Context, key string, limit int64, decode func([]byte) error) error {
	items, err := s.client.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return fmt.Errorf("failed to read list from redis: %w", err)
	}
	for _, raw := range items {
		if err := decode([]byte(raw)); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
