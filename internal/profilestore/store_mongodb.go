package profilestore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"medchat/internal/core"
)

// MongoDBStore implements Store for MongoDB.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore creates a MongoDB profile store. The user id is the
// document id, so no extra indexes are needed.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection("profiles")}, nil
}

// Upsert inserts or replaces the profile for its user id.
func (s *MongoDBStore) Upsert(ctx context.Context, profile *core.Profile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get returns the profile for a user.
func (s *MongoDBStore) Get(ctx context.Context, userID string) (*core.Profile, error) {
	var p core.Profile
	err := s.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, core.NewNotFoundError(fmt.Sprintf("profile %s not found", userID))
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// Delete removes the profile for a user.
func (s *MongoDBStore) Delete(ctx context.Context, userID string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.NewNotFoundError(fmt.Sprintf("profile %s not found", userID))
	}
	return nil
}
