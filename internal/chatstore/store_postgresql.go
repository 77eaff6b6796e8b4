package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medchat/internal/core"
)

// PostgreSQLStore implements Store for PostgreSQL databases.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates a PostgreSQL chat store. It creates the chats
// and messages tables if they don't exist.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chats (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create chats table: %w", err)
	}

	// Attachments live in a JSONB column so extraction results are read and
	// replaced as one unit.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT,
			attachments JSONB,
			model TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id, updated_at)",
		"CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at)",
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// CreateChat inserts a new chat.
func (s *PostgreSQLStore) CreateChat(ctx context.Context, chat *core.Chat) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO chats (id, user_id, title, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat returns a chat by id.
func (s *PostgreSQLStore) GetChat(ctx context.Context, id string) (*core.Chat, error) {
	var chat core.Chat
	err := s.pool.QueryRow(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = $1", id).
		Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, core.NewNotFoundError(fmt.Sprintf("chat %s not found", id))
		}
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	return &chat, nil
}

// ListChats returns all chats for a user, newest first.
func (s *PostgreSQLStore) ListChats(ctx context.Context, userID string) ([]*core.Chat, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM chats WHERE user_id = $1 ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	chats := []*core.Chat{}
	for rows.Next() {
		var chat core.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

// DeleteChat removes a chat; messages cascade.
func (s *PostgreSQLStore) DeleteChat(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM chats WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError(fmt.Sprintf("chat %s not found", id))
	}
	return nil
}

// AddMessage appends a message to a chat and bumps the chat's updated_at.
func (s *PostgreSQLStore) AddMessage(ctx context.Context, msg *core.Message) error {
	var attachmentsJSON []byte
	if len(msg.Attachments) > 0 {
		var err error
		attachmentsJSON, err = json.Marshal(msg.Attachments)
		if err != nil {
			return fmt.Errorf("failed to marshal attachments: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		"INSERT INTO messages (id, chat_id, role, content, attachments, model, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		msg.ID, msg.ChatID, msg.Role, msg.Content, attachmentsJSON, msg.Model, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		"UPDATE chats SET updated_at = $1 WHERE id = $2", msg.CreatedAt, msg.ChatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	return nil
}

// GetMessages returns a chat's messages in insertion order.
func (s *PostgreSQLStore) GetMessages(ctx context.Context, chatID string) ([]*core.Message, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, chat_id, role, content, attachments, model, created_at FROM messages WHERE chat_id = $1 ORDER BY created_at ASC, id ASC", chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []*core.Message{}
	for rows.Next() {
		var msg core.Message
		var attachmentsJSON []byte
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &attachmentsJSON, &msg.Model, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if len(attachmentsJSON) > 0 {
			if err := json.Unmarshal(attachmentsJSON, &msg.Attachments); err != nil {
				slog.Warn("failed to decode stored attachments", "message_id", msg.ID, "error", err)
			}
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// UpdateMessageAttachments replaces the stored attachments of a message.
func (s *PostgreSQLStore) UpdateMessageAttachments(ctx context.Context, messageID string, attachments []core.Attachment) error {
	var attachmentsJSON []byte
	if len(attachments) > 0 {
		var err error
		attachmentsJSON, err = json.Marshal(attachments)
		if err != nil {
			return fmt.Errorf("failed to marshal attachments: %w", err)
		}
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE messages SET attachments = $1 WHERE id = $2", attachmentsJSON, messageID)
	if err != nil {
		return fmt.Errorf("failed to update attachments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError(fmt.Sprintf("message %s not found", messageID))
	}
	return nil
}
