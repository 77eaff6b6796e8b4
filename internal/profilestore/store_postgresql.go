package profilestore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medchat/internal/core"
)

// PostgreSQLStore implements Store for PostgreSQL databases.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates a PostgreSQL profile store. It creates the
// profiles table if it doesn't exist.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			first_name TEXT,
			last_name TEXT,
			birth_date TEXT,
			sex TEXT,
			health_summary TEXT,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create profiles table: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// Upsert inserts or replaces the profile for its user id.
func (s *PostgreSQLStore) Upsert(ctx context.Context, profile *core.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, birth_date, sex, health_summary, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			birth_date = EXCLUDED.birth_date,
			sex = EXCLUDED.sex,
			health_summary = EXCLUDED.health_summary,
			updated_at = EXCLUDED.updated_at`,
		profile.UserID, profile.FirstName, profile.LastName, profile.BirthDate,
		profile.Sex, profile.HealthSummary, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get returns the profile for a user.
func (s *PostgreSQLStore) Get(ctx context.Context, userID string) (*core.Profile, error) {
	var p core.Profile
	err := s.pool.QueryRow(ctx,
		"SELECT user_id, first_name, last_name, birth_date, sex, health_summary, updated_at FROM profiles WHERE user_id = $1", userID).
		Scan(&p.UserID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Sex, &p.HealthSummary, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, core.NewNotFoundError(fmt.Sprintf("profile %s not found", userID))
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// Delete removes the profile for a user.
func (s *PostgreSQLStore) Delete(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM profiles WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError(fmt.Sprintf("profile %s not found", userID))
	}
	return nil
}
