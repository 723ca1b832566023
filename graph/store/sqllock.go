package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteLocker is a Locker shared by every process that opens the same
// SQLite file. Each held lock is a row in session_locks; a row whose
// expiry has passed may be taken over, so a crashed holder blocks its
// session for at most ttl.
type SQLiteLocker struct {
	db   *sql.DB
	ttl  time.Duration
	poll time.Duration
}

// NewSQLiteLocker creates the lock table in db if needed. Pass the handle of
// the SQLiteStore the locker guards (see SQLiteStore.DB). ttl must exceed
// the longest run/resume call.
func NewSQLiteLocker(db *sql.DB, ttl time.Duration) (*SQLiteLocker, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	table := `
		CREATE TABLE IF NOT EXISTS session_locks (
			lock_key TEXT NOT NULL PRIMARY KEY,
			token TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`
	if _, err := db.ExecContext(context.Background(), table); err != nil {
		return nil, fmt.Errorf("failed to create session_locks table: %w", err)
	}
	return &SQLiteLocker{db: db, ttl: ttl, poll: 20 * time.Millisecond}, nil
}

// Lock implements Locker. The claim is a single upsert, which SQLite runs
// under its write lock, so two processes cannot both see the row as free.
func (l *SQLiteLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	token := uuid.NewString()
	claim := `
		INSERT INTO session_locks (lock_key, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(lock_key) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at
		WHERE session_locks.expires_at < ?
	`

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		now := time.Now()
		res, err := l.db.ExecContext(ctx, claim, key, token, now.Add(l.ttl).UnixNano(), now.UnixNano())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			return func(ctx context.Context) error {
				_, err := l.db.ExecContext(ctx, `DELETE FROM session_locks WHERE lock_key = ? AND token = ?`, key, token)
				return err
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// mysqlLockNameLimit is the longest name GET_LOCK accepts.
const mysqlLockNameLimit = 64

// MySQLLocker is a Locker built on MySQL named locks (GET_LOCK). A named
// lock belongs to the connection that took it, so each held lock pins one
// pooled connection and is dropped by the server if that connection dies.
type MySQLLocker struct {
	db     *sql.DB
	prefix string
	poll   time.Duration
}

// NewMySQLLocker creates a locker on db. Pass the handle of the MySQLStore
// the locker guards (see MySQLStore.DB).
func NewMySQLLocker(db *sql.DB, prefix string) *MySQLLocker {
	return &MySQLLocker{db: db, prefix: prefix, poll: 50 * time.Millisecond}
}

func (l *MySQLLocker) lockName(key string) string {
	name := l.prefix + "lock:" + key
	if len(name) > mysqlLockNameLimit {
		sum := sha256.Sum256([]byte(name))
		name = hex.EncodeToString(sum[:])
	}
	return name
}

// Lock implements Locker.
func (l *MySQLLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	name := l.lockName(key)
	conn, err := l.db.Conn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
	}

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		var got sql.NullInt64
		if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, 0)`, name).Scan(&got); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
		}
		if got.Valid && got.Int64 == 1 {
			return func(ctx context.Context) error {
				var released sql.NullInt64
				err := conn.QueryRowContext(ctx, `SELECT RELEASE_LOCK(?)`, name).Scan(&released)
				if err != nil {
					// Drop the connection so the server frees the lock with it.
					_ = conn.Raw(func(any) error { return driver.ErrBadConn })
					_ = conn.Close()
					return fmt.Errorf("failed to release session lock: %w", err)
				}
				return conn.Close()
			}, nil
		}

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
