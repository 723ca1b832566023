package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store. Checkpoints are kept as JSON so that a
// loaded state never aliases the caller's copy, matching the database
// backends.
//
// Data is lost when the process exits; use it for tests and single-shot
// runs.
type MemStore[S any] struct {
	mu          sync.RWMutex
	checkpoints map[string]memRecord
	seq         int64
}

type memRecord struct {
	data []byte
	seq  int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{checkpoints: make(map[string]memRecord)}
}

// Save implements Store.
func (m *MemStore[S]) Save(_ context.Context, sessionID string, cp Checkpoint[S]) error {
	cp.SessionID = sessionID
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.checkpoints[sessionID] = memRecord{data: data, seq: m.seq}
	return nil
}

// Load implements Store.
func (m *MemStore[S]) Load(_ context.Context, sessionID string) (Checkpoint[S], error) {
	m.mu.RLock()
	rec, ok := m.checkpoints[sessionID]
	m.mu.RUnlock()

	var cp Checkpoint[S]
	if !ok {
		return cp, ErrNotFound
	}
	if err := json.Unmarshal(rec.data, &cp); err != nil {
		return cp, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return cp, nil
}

// Delete implements Store.
func (m *MemStore[S]) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checkpoints, sessionID)
	return nil
}

// List implements Store.
func (m *MemStore[S]) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.checkpoints))
	for id := range m.checkpoints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.checkpoints[ids[i]].seq > m.checkpoints[ids[j]].seq
	})
	return ids, nil
}
