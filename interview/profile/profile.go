// Package profile stores personalization profiles between interview
// sessions.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/NishanthN27/Final-Year/interview"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string][]byte)}
}

// LoadProfile implements interview.ProfileStore.
func (m *MemoryStore) LoadProfile(_ context.Context, userID string) (*interview.Profile, error) {
	m.mu.RLock()
	data, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var p interview.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// SaveProfile implements interview.ProfileStore.
func (m *MemoryStore) SaveProfile(_ context.Context, userID string, p interview.Profile) error {
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	m.mu.Lock()
	m.profiles[userID] = data
	m.mu.Unlock()
	return nil
}

// DefaultRedisPrefix namespaces profile keys.
const DefaultRedisPrefix = "interview:profile:"

// RedisStore keeps one JSON document per user.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a profile store. An empty prefix uses
// DefaultRedisPrefix; a zero ttl keeps profiles forever.
func NewRedisStore(client *backend.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// LoadProfile implements interview.ProfileStore.
func (r *RedisStore) LoadProfile(ctx context.Context, userID string) (*interview.Profile, error) {
	data, err := r.client.Get(ctx, r.prefix+userID).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	var p interview.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// SaveProfile implements interview.ProfileStore.
func (r *RedisStore) SaveProfile(ctx context.Context, userID string, p interview.Profile) error {
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+userID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
