// Package store defines checkpoint persistence for graph sessions and
// provides memory, SQLite, MySQL and Redis backends, plus per-session
// locking.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no checkpoint exists for a session id.
var ErrNotFound = errors.New("not found")

// Position records where a session stands between steps.
type Position struct {
	// Status is one of RUNNING, PAUSED or ENDED.
	Status string `json:"status"`

	// Step is the number of steps executed so far.
	Step int `json:"step"`

	// Next lists the nodes that execute in the following step.
	Next []string `json:"next,omitempty"`

	// Pending lists source nodes whose routing is evaluated when the
	// session resumes.
	Pending []string `json:"pending,omitempty"`
}

// Checkpoint is the durable record of a session: its position and the state
// as of the last successful step.
type Checkpoint[S any] struct {
	SessionID string    `json:"session_id"`
	Position  Position  `json:"position"`
	State     S         `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists one checkpoint per session. Save replaces any previous
// checkpoint for the session atomically.
//
// Implementations must be safe for concurrent use across sessions. Callers
// serialize access to a single session with a Locker.
//
// Type parameter S is the state type (must be JSON-serializable for the
// database backends).
type Store[S any] interface {
	Save(ctx context.Context, sessionID string, cp Checkpoint[S]) error

	// Load returns ErrNotFound when the session has no checkpoint.
	Load(ctx context.Context, sessionID string) (Checkpoint[S], error)

	// Delete removes the checkpoint. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions, most recently updated
	// first.
	List(ctx context.Context) ([]string, error)
}
