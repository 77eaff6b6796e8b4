// Package profilestore persists patient profiles keyed by user id.
package profilestore

import (
	"context"
	"fmt"

	"medchat/internal/core"
	"medchat/internal/storage"
)

// Store persists patient profiles for one of the supported backends.
type Store interface {
	// Upsert inserts or replaces the profile for its user id.
	Upsert(ctx context.Context, profile *core.Profile) error

	// Get returns the profile for a user, or a not-found error.
	Get(ctx context.Context, userID string) (*core.Profile, error)

	// Delete removes the profile for a user.
	Delete(ctx context.Context, userID string) error
}

// New creates a Store backed by the configured storage.
func New(s storage.Storage) (Store, error) {
	switch s.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(s.SQLiteDB())
	case storage.TypePostgreSQL:
		return NewPostgreSQLStore(s.PostgreSQLPool())
	case storage.TypeMongoDB:
		return NewMongoDBStore(s.MongoDatabase())
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Type())
	}
}
