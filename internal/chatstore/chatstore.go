// Package chatstore persists chats and their messages. Attachments are kept
// as a document column alongside each message so the enriched extraction
// results survive restarts and are never re-derived on read.
package chatstore

import (
	"context"
	"fmt"

	"medchat/internal/core"
	"medchat/internal/storage"
)

// Store persists chats and messages for one of the supported backends.
type Store interface {
	// CreateChat inserts a new chat.
	CreateChat(ctx context.Context, chat *core.Chat) error

	// GetChat returns a chat by id, or a not-found error.
	GetChat(ctx context.Context, id string) (*core.Chat, error)

	// ListChats returns all chats for a user, newest first.
	ListChats(ctx context.Context, userID string) ([]*core.Chat, error)

	// DeleteChat removes a chat and all its messages.
	DeleteChat(ctx context.Context, id string) error

	// AddMessage appends a message to a chat.
	AddMessage(ctx context.Context, msg *core.Message) error

	// GetMessages returns a chat's messages in insertion order.
	GetMessages(ctx context.Context, chatID string) ([]*core.Message, error)

	// UpdateMessageAttachments replaces the stored attachments of a message.
	// Used to persist extraction results after enrichment.
	UpdateMessageAttachments(ctx context.Context, messageID string, attachments []core.Attachment) error
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
