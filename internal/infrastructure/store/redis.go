package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/swytch/backend/internal/domain"
)

// RedisStore persists extension state in Redis so multiple server instances
// share one view of it. Keys are namespaced under a configurable prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", domain.ErrStorage, err)
	}
	if prefix == "" {
		prefix = "swytch"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Get returns the stored values for the requested keys.
func (s *RedisStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.key(k)
	}

	values, err := s.client.MGet(ctx, namespaced...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis mget: %v", domain.ErrStorage, err)
	}

	result := make(map[string]json.RawMessage, len(keys))
	for i, value := range values {
		if value == nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected value type for %q", domain.ErrStorage, keys[i])
		}
		result[keys[i]] = json.RawMessage(str)
	}
	return result, nil
}

// Set stores the given items in one pipeline round trip.
func (s *RedisStore) Set(ctx context.Context, items map[string]any) error {
	pipe := s.client.Pipeline()
	for key, value := range items {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("%w: encode %q: %v", domain.ErrStorage, key, err)
		}
		pipe.Set(ctx, s.key(key), data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrStorage, err)
	}
	return nil
}

// Remove deletes the given keys.
func (s *RedisStore) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.key(k)
	}
	if err := s.client.Del(ctx, namespaced...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: redis del: %v", domain.ErrStorage, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
