package bot

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"taskchat/chat"
	"taskchat/provider"
	"taskchat/storage"
	"taskchat/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStores(t *testing.T) (*task.SQLiteStore, *chat.SQLiteStore) {
	t.Helper()
	f, err := os.CreateTemp("", "taskchat-bot-*.db")
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

	tasks, err := task.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("task.NewSQLiteStore: %v", err)
	}
	chats, err := chat.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("chat.NewSQLiteStore: %v", err)
	}
	return tasks, chats
}

func newTestBot(t *testing.T, p provider.Provider) (*Bot, *task.SQLiteStore, *chat.SQLiteStore) {
	t.Helper()
	tasks, chats := newTestStores(t)
	return New(p, tasks, chats, testLogger()), tasks, chats
}

// failingStore satisfies task.Store and fails every operation, for
// exercising the executor's fault conversion.
type failingStore struct{}

var errStoreDown = errors.New("database is locked")

func (f *failingStore) Create(_, _, _ string, _ task.Priority) (*task.Task, error) {
	return nil, errStoreDown
}
func (f *failingStore) Get(_ string, _ int64) (*task.Task, error)      { return nil, errStoreDown }
func (f *failingStore) GetByTitle(_, _ string) (*task.Task, error)     { return nil, errStoreDown }
func (f *failingStore) List(_ string, _ task.StatusFilter) ([]*task.Task, error) {
	return nil, errStoreDown
}
func (f *failingStore) Update(_ string, _ int64, _ task.Update) (*task.Task, error) {
	return nil, errStoreDown
}
func (f *failingStore) Delete(_ string, _ int64) error { return errStoreDown }

// panickingStore satisfies task.Store, panics on Update, and counts Creates,
// for exercising the turn loop's fault recovery and batch abort.
type panickingStore struct {
	creates int
}

func (p *panickingStore) Create(userID, title, description string, priority task.Priority) (*task.Task, error) {
	p.creates++
	return &task.Task{ID: 1, UserID: userID, Title: title, Description: description, Priority: priority}, nil
}
func (p *panickingStore) Get(_ string, _ int64) (*task.Task, error)  { return nil, task.ErrNotFound }
func (p *panickingStore) GetByTitle(_, _ string) (*task.Task, error) { return nil, task.ErrNotFound }
func (p *panickingStore) List(_ string, _ task.StatusFilter) ([]*task.Task, error) {
	return nil, nil
}
func (p *panickingStore) Update(_ string, _ int64, _ task.Update) (*task.Task, error) {
	panic("store corrupted")
}
func (p *panickingStore) Delete(_ string, _ int64) error { return nil }
