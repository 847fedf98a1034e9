// Package history persists per-persona session history: an ordered list of
// user/assistant exchanges keyed by session:<handle>:messages. Histories are
// disjoint by construction — one key per persona, no exchange is ever
// written under two keys.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// RedisStore implements types.HistoryStore on Redis. Each key holds the full
// JSON-encoded exchange list; every write replaces the list and refreshes
// the TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore creates a history store with connection validation.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: opts.TTL}, nil
}

// Load returns the exchange list for key, or an empty history when the key
// does not exist.
func (s *RedisStore) Load(ctx context.Context, key string) ([]types.Exchange, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", types.ErrHistoryUnavailable, key, err)
	}

	var history []types.Exchange
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("%w: corrupt history at %s: %v", types.ErrHistoryUnavailable, key, err)
	}

	logging.SessionDebug("Loaded %d exchanges from %s", len(history), key)
	return history, nil
}

// Replace writes the full exchange list under key with a fresh TTL.
func (s *RedisStore) Replace(ctx context.Context, key string, history []types.Exchange) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		logging.SessionError("Failed to persist %s: %v", key, err)
		return fmt.Errorf("%w: replace %s: %v", types.ErrHistoryUnavailable, key, err)
	}

	logging.SessionDebug("Persisted %d exchanges to %s (ttl %v)", len(history), key, s.ttl)
	return nil
}

// Clear deletes the history at key.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", types.ErrHistoryUnavailable, key, err)
	}
	logging.Session("Cleared history %s", key)
	return nil
}

// Client exposes the underlying Redis client for sibling services that share
// the connection (the image brief cache).
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}
