package chat

import (
	"errors"
	"os"
	"testing"

	"taskchat/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	f, err := os.CreateTemp("", "taskchat-chat-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	return store
}

func TestGetOrCreate_Lazy(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.GetOrCreate("alice", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if conv.ID == 0 {
		t.Fatal("expected non-zero conversation ID")
	}
	if conv.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", conv.UserID)
	}

	// Reuse by explicit ID.
	again, err := store.GetOrCreate("alice", &conv.ID)
	if err != nil {
		t.Fatalf("GetOrCreate existing: %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("ID = %d, want %d", again.ID, conv.ID)
	}
}

func TestGetOrCreate_WrongUser(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.GetOrCreate("alice", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if _, err := store.GetOrCreate("bob", &conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("GetOrCreate as bob: got %v, want ErrConversationNotFound", err)
	}
}

func TestGetOrCreate_UnknownID(t *testing.T) {
	store := newTestStore(t)
	missing := int64(12345)
	if _, err := store.GetOrCreate("alice", &missing); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("GetOrCreate missing: got %v, want ErrConversationNotFound", err)
	}
}

func TestAppendMessage_Ordering(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.GetOrCreate("alice", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	contents := []string{"add a task", "Task 'x' has been added successfully.", "list my tasks", "You have 1 task: 1. x"}
	roles := []Role{RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	for i := range contents {
		if _, err := store.AppendMessage(conv, roles[i], contents[i]); err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
	}

	msgs, err := store.Messages(conv)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	for i, m := range msgs {
		if m.Content != contents[i] {
			t.Errorf("message %d content = %q, want %q", i, m.Content, contents[i])
		}
		if m.Role != roles[i] {
			t.Errorf("message %d role = %q, want %q", i, m.Role, roles[i])
		}
		if m.ID == "" {
			t.Errorf("message %d has empty ID", i)
		}
	}
}

func TestTouch(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.GetOrCreate("alice", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	before := conv.UpdatedAt

	if err := store.Touch(conv); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if conv.UpdatedAt.Before(before) {
		t.Error("UpdatedAt went backwards after Touch")
	}
}
