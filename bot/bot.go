// Package bot implements the conversational layer of taskchat: it turns a
// user's natural-language message into task operations by way of an intent
// interpreter, a tool-argument normalizer, and a tool executor.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"taskchat/chat"
	"taskchat/provider"
	"taskchat/task"
)

const processingFallback = "Processing your request..."

// listIntentMarkers trigger a pre-fetch of the user's task list so the
// interpreter can resolve relative references ("the second one").
var listIntentMarkers = []string{"list", "show"}

// positionalMarkers indicate the user is referring to tasks by position.
var positionalMarkers = []string{"#1", "#2", "#3", "#4", "#5", "first", "second", "third", "last"}

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	ConversationID int64               `json:"conversation_id"`
	Response       string              `json:"response"`
	ToolCalls      []provider.ToolCall `json:"tool_calls"`
}

// Bot orchestrates one chat turn: load history, interpret, normalize and
// execute tool calls, persist both sides of the exchange.
type Bot struct {
	provider provider.Provider
	tasks    task.Store
	chats    chat.Store
	norm     *Normalizer
	exec     *Executor
	logger   *slog.Logger
}

// New creates a Bot. The provider is constructed once at process start and
// shared across turns.
func New(p provider.Provider, tasks task.Store, chats chat.Store, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		provider: p,
		tasks:    tasks,
		chats:    chats,
		norm:     NewNormalizer(tasks),
		exec:     NewExecutor(tasks, logger),
		logger:   logger,
	}
}

// ProcessTurn handles one chat turn for the given user. A nil conversationID
// lazily creates a new conversation; an explicit one is looked up and its
// ownership verified, returning chat.ErrConversationNotFound on a miss.
// Interpreter and tool failures degrade into the reply text; the turn only
// errors on conversation resolution or message persistence.
func (b *Bot) ProcessTurn(ctx context.Context, userID, message string, conversationID *int64) (*TurnResult, error) {
	conv, err := b.chats.GetOrCreate(userID, conversationID)
	if err != nil {
		return nil, err
	}

	history, err := b.chats.Messages(conv)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	refList := b.taskReference(userID, message)

	// The user's message is persisted before interpretation so it survives
	// an interpreter fault.
	if _, err := b.chats.AppendMessage(conv, chat.RoleUser, message); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	reply, toolCalls := b.interpret(ctx, message, history, refList)
	reply = b.runToolCalls(userID, toolCalls, reply)

	if _, err := b.chats.AppendMessage(conv, chat.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	if err := b.chats.Touch(conv); err != nil {
		return nil, err
	}

	if toolCalls == nil {
		toolCalls = []provider.ToolCall{}
	}
	return &TurnResult{
		ConversationID: conv.ID,
		Response:       reply,
		ToolCalls:      toolCalls,
	}, nil
}

// taskReference pre-fetches the user's tasks as a numbered reference string
// when the message shows list/show intent. Lookup failures are logged and
// ignored; the reference is a hint, not a requirement.
func (b *Bot) taskReference(userID, message string) string {
	if !containsAny(message, listIntentMarkers) {
		return ""
	}
	tasks, err := b.tasks.List(userID, task.StatusAll)
	if err != nil {
		b.logger.Warn("task reference prefetch", slog.String("user", userID), slog.Any("err", err))
		return ""
	}
	if len(tasks) == 0 {
		return ""
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = fmt.Sprintf("%d. %s (ID: %d)", i+1, t.Title, t.ID)
	}
	return strings.Join(lines, "\n")
}

// interpret invokes the intent interpreter once. A fault from it degrades to
// an apologetic reply with zero tool calls.
func (b *Bot) interpret(ctx context.Context, message string, history []*chat.Message, refList string) (string, []provider.ToolCall) {
	msgs := make([]provider.Message, 0, len(history)+1)
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := provider.RoleUser
		if m.Role == chat.RoleAssistant {
			role = provider.RoleAssistant
		}
		msgs = append(msgs, provider.Message{Role: role, Content: content})
	}

	enhanced := message
	if refList != "" && containsAny(message, positionalMarkers) {
		enhanced += fmt.Sprintf("\n\nFor reference, here is the recent task list: %s", refList)
	}
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: enhanced})

	resp, err := b.provider.Chat(ctx, msgs, toolDefs)
	if err != nil {
		b.logger.Error("interpreter fault", slog.Any("err", err))
		return fmt.Sprintf("I encountered an error processing your request: %s. Could you please try again?", err), nil
	}

	reply := resp.Content
	if strings.TrimSpace(reply) == "" {
		reply = processingFallback
	}
	return reply, resp.ToolCalls
}

// runToolCalls normalizes and executes each proposed tool call in order,
// folding results into the reply text. A failed normalization skips execution
// of that call; a recovered fault during execution aborts the remaining
// calls for the turn.
func (b *Bot) runToolCalls(userID string, toolCalls []provider.ToolCall, reply string) string {
	for _, call := range toolCalls {
		inv, failed := b.norm.Normalize(userID, call)
		if failed != nil {
			reply = failed.Message
			continue
		}

		res, fault := b.execute(inv)
		if fault != nil {
			b.logger.Error("tool execution fault", slog.String("tool", call.Name), slog.Any("err", fault))
			return fmt.Sprintf("Error executing tool %s: %s", call.Name, fault)
		}

		switch {
		case res.Message != "":
			reply = res.Message
		case !res.OK && res.Err != "":
			reply = "Error: " + res.Err
		}
	}
	return reply
}

// execute runs one invocation, converting a panic into an error so a single
// misbehaving tool cannot take down the turn.
func (b *Bot) execute(inv *Invocation) (res *Result, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("%v", r)
		}
	}()
	return b.exec.Execute(inv), nil
}

// containsAny reports whether the lowercased message contains any marker.
func containsAny(message string, markers []string) bool {
	lower := strings.ToLower(message)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
