// Package provider defines the intent-interpreter boundary for the chatbot.
package provider

import "context"

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolDef describes a tool the interpreter may propose to invoke.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolCall is a proposed tool invocation from the interpreter. Arguments
// carry whatever names the model emitted; normalization happens downstream.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Response is a completed interpreter response.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Provider interprets a user message into a reply and proposed tool calls.
type Provider interface {
	// Name returns the provider identifier (e.g., "cohere", "mock").
	Name() string

	// Chat sends one synchronous request and returns the complete response.
	Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Response, error)
}
