package task

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	priority    TEXT NOT NULL DEFAULT 'medium',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
`

// SQLiteStore persists tasks in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore ensures the tasks table exists on the given database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create tasks schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create persists a new task and returns it with ID and timestamps set.
func (s *SQLiteStore) Create(userID, title, description string, priority Priority) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO tasks (user_id, title, description, completed, priority, created_at, updated_at)
		VALUES (?,?,?,0,?,?,?)`,
		userID, title, description, string(priority), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("task id: %w", err)
	}
	return &Task{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: description,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Get retrieves a task by (user, id).
func (s *SQLiteStore) Get(userID string, id int64) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, completed, priority, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// GetByTitle retrieves the oldest task with an exact title match for the user.
func (s *SQLiteStore) GetByTitle(userID, title string) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, completed, priority, created_at, updated_at
		 FROM tasks WHERE user_id = ? AND title = ? ORDER BY id ASC LIMIT 1`, userID, title)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns the user's tasks matching the status filter, oldest first.
func (s *SQLiteStore) List(userID string, filter StatusFilter) ([]*Task, error) {
	q := `SELECT id, user_id, title, description, completed, priority, created_at, updated_at
	      FROM tasks WHERE user_id = ?`
	args := []any{userID}

	switch filter {
	case StatusPending:
		q += " AND completed = 0"
	case StatusCompleted:
		q += " AND completed = 1"
	}
	q += " ORDER BY id ASC"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update applies the non-nil fields of upd and refreshes UpdatedAt.
func (s *SQLiteStore) Update(userID string, id int64, upd Update) (*Task, error) {
	t, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(`
		UPDATE tasks SET title=?, description=?, completed=?, updated_at=?
		WHERE id=? AND user_id=?`,
		t.Title, t.Description, boolToInt(t.Completed), t.UpdatedAt, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// Delete removes a task by (user, id).
func (s *SQLiteStore) Delete(userID string, id int64) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var completed int
	var priority string

	err := s.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description,
		&completed, &priority,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	t.Priority = Priority(priority)
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
