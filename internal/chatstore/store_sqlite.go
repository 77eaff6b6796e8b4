package chatstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"medchat/internal/core"
)

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite chat store. It creates the chats and
// messages tables if they don't exist.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create chats table: %w", err)
	}

	// Attachments live in a single JSON column so extraction results are
	// read and replaced as one unit.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT,
			attachments JSON,
			model TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
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
		if _, err := db.Exec(idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// CreateChat inserts a new chat.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *core.Chat) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chats (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		chat.ID, chat.UserID, chat.Title,
		chat.CreatedAt.UTC().Format(time.RFC3339Nano),
		chat.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat returns a chat by id.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*core.Chat, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = ?", id)

	var chat core.Chat
	var createdAt, updatedAt string
	if err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError(fmt.Sprintf("chat %s not found", id))
		}
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	chat.CreatedAt = parseSQLiteTime(createdAt)
	chat.UpdatedAt = parseSQLiteTime(updatedAt)
	return &chat, nil
}

// ListChats returns all chats for a user, newest first.
func (s *SQLiteStore) ListChats(ctx context.Context, userID string) ([]*core.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM chats WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	chats := []*core.Chat{}
	for rows.Next() {
		var chat core.Chat
		var createdAt, updatedAt string
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chat.CreatedAt = parseSQLiteTime(createdAt)
		chat.UpdatedAt = parseSQLiteTime(updatedAt)
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

// DeleteChat removes a chat and all its messages.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError(fmt.Sprintf("chat %s not found", id))
	}
	// Cascade deletes need foreign_keys=ON; delete explicitly so the
	// messages go regardless of the connection pragma.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}

// AddMessage appends a message to a chat and bumps the chat's updated_at.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg *core.Message) error {
	attachmentsJSON, err := marshalAttachments(msg.Attachments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO messages (id, chat_id, role, content, attachments, model, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ChatID, msg.Role, msg.Content, attachmentsJSON, msg.Model,
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE chats SET updated_at = ? WHERE id = ?",
		msg.CreatedAt.UTC().Format(time.RFC3339Nano), msg.ChatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	return nil
}

// GetMessages returns a chat's messages in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, chatID string) ([]*core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, chat_id, role, content, attachments, model, created_at FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC", chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []*core.Message{}
	for rows.Next() {
		var msg core.Message
		var attachmentsJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &attachmentsJSON, &msg.Model, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if attachmentsJSON.Valid && attachmentsJSON.String != "" {
			if err := json.Unmarshal([]byte(attachmentsJSON.String), &msg.Attachments); err != nil {
				slog.Warn("failed to decode stored attachments", "message_id", msg.ID, "error", err)
			}
		}
		msg.CreatedAt = parseSQLiteTime(createdAt)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// UpdateMessageAttachments replaces the stored attachments of a message.
func (s *SQLiteStore) UpdateMessageAttachments(ctx context.Context, messageID string, attachments []core.Attachment) error {
	attachmentsJSON, err := marshalAttachments(attachments)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET attachments = ? WHERE id = ?", attachmentsJSON, messageID)
	if err != nil {
		return fmt.Errorf("failed to update attachments: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError(fmt.Sprintf("message %s not found", messageID))
	}
	return nil
}

func marshalAttachments(attachments []core.Attachment) (interface{}, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}
	return string(data), nil
}

func parseSQLiteTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
