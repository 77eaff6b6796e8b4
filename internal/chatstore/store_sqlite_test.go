package chatstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"medchat/internal/core"
)

// createTestDB creates an in-memory SQLite database for testing.
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(createTestDB(t))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStore_ChatLifecycle(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	chat := &core.Chat{
		ID:        "chat-1",
		UserID:    "user-1",
		Title:     "Blood pressure questions",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	got, err := store.GetChat(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if got.Title != chat.Title || got.UserID != chat.UserID {
		t.Errorf("GetChat returned %+v, want %+v", got, chat)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}

	if err := store.DeleteChat(ctx, "chat-1"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}
	if _, err := store.GetChat(ctx, "chat-1"); err == nil {
		t.Error("GetChat after delete should fail")
	}
}

func TestSQLiteStore_GetChat_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.GetChat(context.Background(), "missing")
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Type != core.ErrorTypeNotFound {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestSQLiteStore_ListChats_NewestFirst(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"chat-a", "chat-b", "chat-c"} {
		chat := &core.Chat{
			ID:        id,
			UserID:    "user-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateChat(ctx, chat); err != nil {
			t.Fatalf("CreateChat failed: %v", err)
		}
	}
	// Different user, must not appear
	other := &core.Chat{ID: "chat-x", UserID: "user-2", CreatedAt: base, UpdatedAt: base}
	if err := store.CreateChat(ctx, other); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	chats, err := store.ListChats(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("expected 3 chats, got %d", len(chats))
	}
	wantOrder := []string{"chat-c", "chat-b", "chat-a"}
	for i, want := range wantOrder {
		if chats[i].ID != want {
			t.Errorf("chats[%d].ID = %s, want %s", i, chats[i].ID, want)
		}
	}
}

func TestSQLiteStore_Messages_OrderAndAttachments(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	chat := &core.Chat{ID: "chat-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	msgs := []*core.Message{
		{
			ID: "msg-1", ChatID: "chat-1", Role: "user", Content: "see attached",
			Attachments: []core.Attachment{
				{Kind: core.AttachmentFile, Name: "labs.pdf", Size: 1024, Status: core.StatusPending},
			},
			CreatedAt: now,
		},
		{ID: "msg-2", ChatID: "chat-1", Role: "assistant", Content: "reviewing", Model: "gpt-4o-mini", CreatedAt: now.Add(time.Second)},
	}
	for _, m := range msgs {
		if err := store.AddMessage(ctx, m); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	got, err := store.GetMessages(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].ID != "msg-1" || got[1].ID != "msg-2" {
		t.Errorf("messages out of order: %s, %s", got[0].ID, got[1].ID)
	}
	if len(got[0].Attachments) != 1 || got[0].Attachments[0].Name != "labs.pdf" {
		t.Errorf("attachments not round-tripped: %+v", got[0].Attachments)
	}
	if got[1].Attachments != nil {
		t.Errorf("expected no attachments, got %+v", got[1].Attachments)
	}

	// AddMessage must bump the chat's updated_at
	updated, err := store.GetChat(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if !updated.UpdatedAt.After(chat.UpdatedAt) {
		t.Errorf("chat updated_at not bumped: %v", updated.UpdatedAt)
	}
}

func TestSQLiteStore_UpdateMessageAttachments(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := store.CreateChat(ctx, &core.Chat{ID: "chat-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}
	msg := &core.Message{
		ID: "msg-1", ChatID: "chat-1", Role: "user",
		Attachments: []core.Attachment{
			{Kind: core.AttachmentFile, Name: "notes.txt", Data: "aGVsbG8=", Size: 5, Status: core.StatusPending},
		},
		CreatedAt: now,
	}
	if err := store.AddMessage(ctx, msg); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	enriched := []core.Attachment{
		{Kind: core.AttachmentFile, Name: "notes.txt", Data: "aGVsbG8=", Size: 5, ExtractedText: "hello", Status: core.StatusExtracted},
	}
	if err := store.UpdateMessageAttachments(ctx, "msg-1", enriched); err != nil {
		t.Fatalf("UpdateMessageAttachments failed: %v", err)
	}

	got, err := store.GetMessages(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	att := got[0].Attachments[0]
	if att.ExtractedText != "hello" || att.Status != core.StatusExtracted {
		t.Errorf("attachment not updated: %+v", att)
	}

	err = store.UpdateMessageAttachments(ctx, "missing", enriched)
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Type != core.ErrorTypeNotFound {
		t.Errorf("expected not-found error for missing message, got %v", err)
	}
}

func TestSQLiteStore_DeleteChat_RemovesMessages(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := store.CreateChat(ctx, &core.Chat{ID: "chat-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}
	if err := store.AddMessage(ctx, &core.Message{ID: "msg-1", ChatID: "chat-1", Role: "user", CreatedAt: now}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	if err := store.DeleteChat(ctx, "chat-1"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}

	msgs, err := store.GetMessages(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected messages deleted with chat, got %d", len(msgs))
	}
}
