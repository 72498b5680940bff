// Package task defines the to-do task model and persistence.
package task

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a task does not exist for the given user.
var ErrNotFound = errors.New("task not found")

// Priority orders the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// StatusFilter selects tasks by completion state in List.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatusFilter maps a raw filter string onto a StatusFilter.
// Unrecognized values behave as "all".
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusPending:
		return StatusPending
	case StatusCompleted:
		return StatusCompleted
	}
	return StatusAll
}

// Task is a single to-do item owned by one user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update describes a partial change to a task. Nil fields are left unchanged.
type Update struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Store persists and retrieves tasks. Every operation is scoped by user ID;
// a task belonging to another user is indistinguishable from a missing one.
type Store interface {
	// Create persists a new task for the user and returns it with its ID set.
	Create(userID, title, description string, priority Priority) (*Task, error)

	// Get retrieves a task by (user, id). Returns ErrNotFound when absent.
	Get(userID string, id int64) (*Task, error)

	// GetByTitle retrieves the first task whose title exactly equals title,
	// in insertion order. Returns ErrNotFound when no task matches.
	GetByTitle(userID, title string) (*Task, error)

	// List returns the user's tasks matching the status filter, in insertion order.
	List(userID string, filter StatusFilter) ([]*Task, error)

	// Update applies the non-nil fields of upd and returns the updated task.
	// Returns ErrNotFound when the task does not exist for the user.
	Update(userID string, id int64, upd Update) (*Task, error)

	// Delete removes a task permanently. Returns ErrNotFound when absent.
	Delete(userID string, id int64) error
}
