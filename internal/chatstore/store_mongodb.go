package chatstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"medchat/internal/core"
)

// MongoDBStore implements Store for MongoDB.
type MongoDBStore struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

// NewMongoDBStore creates a MongoDB chat store and ensures the indexes
// needed for the common queries.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	store := &MongoDBStore{
		chats:    database.Collection("chats"),
		messages: database.Collection("messages"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := store.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	if err != nil {
		slog.Warn("failed to create chats index", "error", err)
	}

	_, err = store.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		slog.Warn("failed to create messages index", "error", err)
	}

	return store, nil
}

// CreateChat inserts a new chat.
func (s *MongoDBStore) CreateChat(ctx context.Context, chat *core.Chat) error {
	if _, err := s.chats.InsertOne(ctx, chat); err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat returns a chat by id.
func (s *MongoDBStore) GetChat(ctx context.Context, id string) (*core.Chat, error) {
	var chat core.Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, core.NewNotFoundError(fmt.Sprintf("chat %s not found", id))
		}
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	return &chat, nil
}

// ListChats returns all chats for a user, newest first.
func (s *MongoDBStore) ListChats(ctx context.Context, userID string) ([]*core.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.chats.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []*core.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

// DeleteChat removes a chat and all its messages.
func (s *MongoDBStore) DeleteChat(ctx context.Context, id string) error {
	res, err := s.chats.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.NewNotFoundError(fmt.Sprintf("chat %s not found", id))
	}
	if _, err := s.messages.DeleteMany(ctx, bson.M{"chat_id": id}); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}

// AddMessage appends a message to a chat and bumps the chat's updated_at.
func (s *MongoDBStore) AddMessage(ctx context.Context, msg *core.Message) error {
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	_, err := s.chats.UpdateOne(ctx,
		bson.M{"_id": msg.ChatID},
		bson.M{"$set": bson.M{"updated_at": msg.CreatedAt}})
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	return nil
}

// GetMessages returns a chat's messages in insertion order.
func (s *MongoDBStore) GetMessages(ctx context.Context, chatID string) ([]*core.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []*core.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// UpdateMessageAttachments replaces the stored attachments of a message.
func (s *MongoDBStore) UpdateMessageAttachments(ctx context.Context, messageID string, attachments []core.Attachment) error {
	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"attachments": attachments}})
	if err != nil {
		return fmt.Errorf("failed to update attachments: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.NewNotFoundError(fmt.Sprintf("message %s not found", messageID))
	}
	return nil
}
