// Package chat defines the conversation and message models and persistence.
package chat

import (
	"errors"
	"time"
)

// ErrConversationNotFound is returned when an explicit conversation ID does
// not exist for the user.
var ErrConversationNotFound = errors.New("conversation not found")

// Role identifies the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups the messages of one chat thread for a user.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single turn in a conversation. Messages are append-only.
type Message struct {
	ID             string    `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists conversations and their message logs, scoped by user ID.
type Store interface {
	// GetOrCreate looks up an existing conversation when id is non-nil,
	// verifying ownership, or creates a new one when id is nil.
	// Returns ErrConversationNotFound when an explicit id does not belong
	// to the user.
	GetOrCreate(userID string, id *int64) (*Conversation, error)

	// AppendMessage records a message at the end of the conversation.
	AppendMessage(conv *Conversation, role Role, content string) (*Message, error)

	// Messages returns the conversation's messages in creation order.
	Messages(conv *Conversation) ([]*Message, error)

	// Touch refreshes the conversation's UpdatedAt timestamp.
	Touch(conv *Conversation) error
}
