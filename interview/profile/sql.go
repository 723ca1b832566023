package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NishanthN27/Final-Year/interview"
)

// SQLStore keeps profiles in an interview_profiles table. The schema and
// statements are portable between SQLite and MySQL, so it shares the
// database of the checkpoint store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore migrates the schema on db.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	const table = `
		CREATE TABLE IF NOT EXISTS interview_profiles (
			user_id VARCHAR(255) NOT NULL PRIMARY KEY,
			profile TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to create interview_profiles table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// LoadProfile implements interview.ProfileStore.
func (s *SQLStore) LoadProfile(ctx context.Context, userID string) (*interview.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT profile FROM interview_profiles WHERE user_id = ?", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	var p interview.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// SaveProfile implements interview.ProfileStore. The row is replaced inside
// one transaction.
func (s *SQLStore) SaveProfile(ctx context.Context, userID string, p interview.Profile) error {
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM interview_profiles WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to replace profile: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO interview_profiles (user_id, profile, updated_at) VALUES (?, ?, ?)",
		userID, string(data), time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return tx.Commit()
}
