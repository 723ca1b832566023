package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single SQLite file, using the pure-Go
// modernc.org/sqlite driver. It suits local development and single-process
// deployments that still need sessions to survive restarts.
//
// Schema:
//   - session_checkpoints: one row per session, replaced on every Save
//
// Type parameter S is the state type to persist (must be JSON-serializable).
type SQLiteStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema. Use ":memory:" for a throwaway database.
//
// Example:
//
//	st, err := store.NewSQLiteStore[interview.SessionState]("./sessions.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s := &SQLiteStore[S]{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS session_checkpoints (
			session_id TEXT NOT NULL PRIMARY KEY,
			status TEXT NOT NULL,
			step INTEGER NOT NULL,
			position TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create session_checkpoints table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_checkpoints_updated ON session_checkpoints(updated_at)"); err != nil {
		return fmt.Errorf("failed to create idx_checkpoints_updated: %w", err)
	}
	return nil
}

func (s *SQLiteStore[S]) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("store is closed")
	}
	return nil
}

// Save implements Store.
func (s *SQLiteStore[S]) Save(ctx context.Context, sessionID string, cp Checkpoint[S]) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	positionJSON, err := json.Marshal(cp.Position)
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	updated := cp.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	query := `
		INSERT INTO session_checkpoints (session_id, status, step, position, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			step = excluded.step,
			position = excluded.position,
			state = excluded.state,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, sessionID, cp.Position.Status, cp.Position.Step,
		string(positionJSON), string(stateJSON), updated.UnixNano()); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore[S]) Load(ctx context.Context, sessionID string) (Checkpoint[S], error) {
	var cp Checkpoint[S]
	if err := s.checkOpen(); err != nil {
		return cp, err
	}

	var positionJSON, stateJSON string
	var updated int64
	query := `SELECT position, state, updated_at FROM session_checkpoints WHERE session_id = ?`
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&positionJSON, &stateJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return cp, ErrNotFound
	}
	if err != nil {
		return cp, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := json.Unmarshal([]byte(positionJSON), &cp.Position); err != nil {
		return cp, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
		return cp, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	cp.SessionID = sessionID
	cp.UpdatedAt = time.Unix(0, updated)
	return cp, nil
}

// Delete implements Store.
func (s *SQLiteStore[S]) Delete(ctx context.Context, sessionID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_checkpoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore[S]) List(ctx context.Context) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM session_checkpoints ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DB returns the store's connection pool, with the store's pragmas applied.
// Lockers and profile tables meant to live in the same file share it.
func (s *SQLiteStore[S]) DB() *sql.DB {
	return s.db
}

// Path returns the database location the store was opened with.
func (s *SQLiteStore[S]) Path() string {
	return s.path
}

// Close releases the database. Further calls fail.
func (s *SQLiteStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
