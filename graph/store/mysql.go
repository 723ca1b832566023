package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a Store backed by MySQL or MariaDB. It is meant for
// deployments where several processes serve the same sessions; pair it with
// a MySQLLocker or RedisLocker so that a session is only advanced by one
// process at a time.
//
// Type parameter S is the state type to persist (must be JSON-serializable).
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore connects using dsn and creates the schema if needed.
//
// Example DSN:
//
//	user:password@tcp(127.0.0.1:3306)/interviews?parseTime=true
//
// Keep credentials out of source code; read the DSN from configuration.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore[S]{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS session_checkpoints (
			session_id VARCHAR(255) NOT NULL PRIMARY KEY,
			status VARCHAR(16) NOT NULL,
			step INT NOT NULL,
			position JSON NOT NULL,
			state JSON NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_updated (updated_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create session_checkpoints table: %w", err)
	}
	return nil
}

func (m *MySQLStore[S]) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errors.New("store is closed")
	}
	return nil
}

// Save implements Store.
func (m *MySQLStore[S]) Save(ctx context.Context, sessionID string, cp Checkpoint[S]) error {
	if err := m.checkOpen(); err != nil {
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
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			step = VALUES(step),
			position = VALUES(position),
			state = VALUES(state),
			updated_at = VALUES(updated_at)
	`
	if _, err := m.db.ExecContext(ctx, query, sessionID, cp.Position.Status, cp.Position.Step,
		positionJSON, stateJSON, updated.UnixNano()); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (m *MySQLStore[S]) Load(ctx context.Context, sessionID string) (Checkpoint[S], error) {
	var cp Checkpoint[S]
	if err := m.checkOpen(); err != nil {
		return cp, err
	}

	var positionJSON, stateJSON []byte
	var updated int64
	query := `SELECT position, state, updated_at FROM session_checkpoints WHERE session_id = ?`
	err := m.db.QueryRowContext(ctx, query, sessionID).Scan(&positionJSON, &stateJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return cp, ErrNotFound
	}
	if err != nil {
		return cp, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := json.Unmarshal(positionJSON, &cp.Position); err != nil {
		return cp, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		return cp, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	cp.SessionID = sessionID
	cp.UpdatedAt = time.Unix(0, updated)
	return cp, nil
}

// Delete implements Store.
func (m *MySQLStore[S]) Delete(ctx context.Context, sessionID string) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM session_checkpoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List implements Store.
func (m *MySQLStore[S]) List(ctx context.Context) ([]string, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, `SELECT session_id FROM session_checkpoints ORDER BY updated_at DESC`)
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

// DB returns the store's connection pool.
func (m *MySQLStore[S]) DB() *sql.DB {
	return m.db
}

// Ping verifies the database connection is alive.
func (m *MySQLStore[S]) Ping(ctx context.Context) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	return m.db.PingContext(ctx)
}

// Close releases the connection pool.
func (m *MySQLStore[S]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}
