package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces checkpoint keys.
const DefaultRedisPrefix = "interview:session:"

// RedisStore is a Store backed by Redis. Each checkpoint is a JSON string
// under prefix+sessionID; a sorted set scored by update time indexes the
// sessions for List.
type RedisStore[S any] struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
	ttl    time.Duration
}

// WithTTL expires sessions that have not been saved for ttl. Zero keeps
// them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore[S any](client *backend.Client, opts ...RedisOption) *RedisStore[S] {
	cfg := redisConfig{prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RedisStore[S]{client: client, prefix: cfg.prefix, ttl: cfg.ttl}
}

func (s *RedisStore[S]) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore[S]) indexKey() string {
	return s.prefix + "index"
}

// Save implements Store.
func (s *RedisStore[S]) Save(ctx context.Context, sessionID string, cp Checkpoint[S]) error {
	cp.SessionID = sessionID
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(cp.UpdatedAt.UnixNano()),
		Member: sessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore[S]) Load(ctx context.Context, sessionID string) (Checkpoint[S], error) {
	var cp Checkpoint[S]
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return cp, ErrNotFound
		}
		return cp, fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := json.Unmarshal(val, &cp); err != nil {
		return cp, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return cp, nil
}

// Delete implements Store.
func (s *RedisStore[S]) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List implements Store. Index entries whose checkpoint has expired are
// pruned on the way.
func (s *RedisStore[S]) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}
	if s.ttl == 0 || len(ids) == 0 {
		return ids, nil
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check session %s: %w", id, err)
		}
		if n == 0 {
			s.client.ZRem(ctx, s.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}
