package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id INTEGER NOT NULL,
	user_id         TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
`

// SQLiteStore persists conversations and messages in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore ensures the chat tables exist on the given database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create chat schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// GetOrCreate resolves or lazily creates the conversation for the user.
func (s *SQLiteStore) GetOrCreate(userID string, id *int64) (*Conversation, error) {
	if id != nil {
		row := s.db.QueryRow(
			`SELECT id, user_id, created_at, updated_at FROM conversations
			 WHERE id = ? AND user_id = ?`, *id, userID)
		var c Conversation
		err := row.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get conversation: %w", err)
		}
		return &c, nil
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?,?,?)`,
		userID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	convID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("conversation id: %w", err)
	}
	return &Conversation{ID: convID, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

// AppendMessage records a message at the end of the conversation.
func (s *SQLiteStore) AppendMessage(conv *Conversation, role Role, content string) (*Message, error) {
	m := &Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO messages (id, conversation_id, user_id, role, content, created_at)
		 VALUES (?,?,?,?,?,?)`,
		m.ID, m.ConversationID, m.UserID, string(m.Role), m.Content, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// Messages returns the conversation's messages in creation order.
func (s *SQLiteStore) Messages(conv *Conversation) ([]*Message, error) {
	rows, err := s.db.Query(
		`SELECT id, conversation_id, user_id, role, content, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, rowid ASC`,
		conv.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Touch refreshes the conversation's UpdatedAt timestamp.
func (s *SQLiteStore) Touch(conv *Conversation) error {
	now := time.Now().UTC()
	if _, err := s.db.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conv.ID,
	); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	conv.UpdatedAt = now
	return nil
}
