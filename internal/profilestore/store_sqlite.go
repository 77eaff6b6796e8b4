package profilestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medchat/internal/core"
)

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite profile store. It creates the profiles
// table if it doesn't exist.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			first_name TEXT,
			last_name TEXT,
			birth_date TEXT,
			sex TEXT,
			health_summary TEXT,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create profiles table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert inserts or replaces the profile for its user id.
func (s *SQLiteStore) Upsert(ctx context.Context, profile *core.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, birth_date, sex, health_summary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			birth_date = excluded.birth_date,
			sex = excluded.sex,
			health_summary = excluded.health_summary,
			updated_at = excluded.updated_at`,
		profile.UserID, profile.FirstName, profile.LastName, profile.BirthDate,
		profile.Sex, profile.HealthSummary,
		profile.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get returns the profile for a user.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*core.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT user_id, first_name, last_name, birth_date, sex, health_summary, updated_at FROM profiles WHERE user_id = ?", userID)

	var p core.Profile
	var updatedAt string
	err := row.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Sex, &p.HealthSummary, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError(fmt.Sprintf("profile %s not found", userID))
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

// Delete removes the profile for a user.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError(fmt.Sprintf("profile %s not found", userID))
	}
	return nil
}
