package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"taskchat/provider"
	"taskchat/task"
)

// Canonical argument names used by the executor.
const (
	argUserID      = "user_id"
	argTaskID      = "task_id"
	argTitle       = "title"
	argDescription = "description"
	argStatus      = "status"
)

// Raw argument names the interpreter is known to emit instead of the
// canonical ones.
const (
	aliasID        = "id"
	aliasTask      = "task"
	aliasTaskTitle = "task_title"
)

// Invocation is a tool call whose arguments have been rewritten into
// canonical form and scoped to the acting user.
type Invocation struct {
	Name string
	Args map[string]any
}

// titleAliases is the ordered precedence list for the add tool's title
// argument. The first present alias wins.
var titleAliases = []string{argTitle, aliasTask, aliasTaskTitle}

// idBearing reports whether the tool requires a resolved task_id.
func idBearing(name string) bool {
	switch name {
	case toolUpdateTask, toolDeleteTask, toolCompleteTask:
		return true
	}
	return false
}

// Normalizer rewrites raw tool-call arguments into canonical form, resolving
// task references by title against the task store when no identifier is
// given. It performs read-only lookups and never mutates state.
type Normalizer struct {
	tasks task.Store
}

// NewNormalizer creates a Normalizer backed by the given task store.
func NewNormalizer(tasks task.Store) *Normalizer {
	return &Normalizer{tasks: tasks}
}

// Normalize produces either an Invocation ready for execution or a terminal
// failure Result, never both. When the Result is non-nil the tool must not
// be executed.
func (n *Normalizer) Normalize(userID string, call provider.ToolCall) (*Invocation, *Result) {
	args := make(map[string]any, len(call.Arguments)+1)
	for k, v := range call.Arguments {
		args[k] = v
	}

	switch {
	case call.Name == toolAddTask:
		if res := normalizeTitle(args); res != nil {
			return nil, res
		}
	case idBearing(call.Name):
		if res := n.resolveTaskID(userID, call.Name, args); res != nil {
			return nil, res
		}
	}

	// The interpreter is not trusted to supply a correct user identifier.
	args[argUserID] = userID

	return &Invocation{Name: call.Name, Args: args}, nil
}

// normalizeTitle collapses the title aliases for the add tool. The first
// alias present in precedence order wins; every other alias key is dropped
// so only the canonical title survives. A missing title is a terminal
// failure.
func normalizeTitle(args map[string]any) *Result {
	var title any
	found := false
	for _, alias := range titleAliases {
		v, ok := args[alias]
		if !ok {
			continue
		}
		if !found {
			title = v
			found = true
		}
		delete(args, alias)
	}
	if found {
		args[argTitle] = title
		return nil
	}
	return &Result{
		Err:     "Either 'title' or 'task' parameter must be provided",
		Message: "Sorry, I couldn't add the task. Missing title information. Please try again.",
	}
}

// resolveTaskID establishes a numeric task_id for the identifier-bearing
// tools. Resolution order: an explicit task_id or id wins outright, then a
// numeric-looking task value, then a title lookup on task, task_title, or
// title. For delete and complete the lookup argument is consumed; for update
// an explicit title doubles as the rename value and is preserved.
func (n *Normalizer) resolveTaskID(userID, tool string, args map[string]any) *Result {
	if id, ok := asTaskID(args[argTaskID]); ok {
		args[argTaskID] = id
		return nil
	}
	if id, ok := asTaskID(args[aliasID]); ok {
		delete(args, aliasID)
		args[argTaskID] = id
		return nil
	}
	if id, ok := asTaskID(args[aliasTask]); ok {
		delete(args, aliasTask)
		args[argTaskID] = id
		return nil
	}

	// No identifier anywhere; fall back to title resolution.
	if title, ok := asString(args[aliasTask]); ok {
		return n.lookupByTitle(userID, args, aliasTask, title, "name", true)
	}
	if title, ok := asString(args[aliasTaskTitle]); ok {
		return n.lookupByTitle(userID, args, aliasTaskTitle, title, "title", true)
	}
	if title, ok := asString(args[argTitle]); ok {
		// For update the title is also the rename value and stays in place.
		consume := tool != toolUpdateTask
		return n.lookupByTitle(userID, args, argTitle, title, "title", consume)
	}

	return &Result{
		Err:     fmt.Sprintf("No task identifier provided for %s", tool),
		Message: "I couldn't tell which task you meant. Please give me the task's ID or its exact title.",
	}
}

// lookupByTitle queries the store for the user's first task with an exactly
// matching title and rewrites the argument into task_id. A miss is terminal.
func (n *Normalizer) lookupByTitle(userID string, args map[string]any, key, title, noun string, consume bool) *Result {
	t, err := n.tasks.GetByTitle(userID, title)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return &Result{
				Err:     fmt.Sprintf("Could not find a task with the %s '%s'.", noun, title),
				Message: fmt.Sprintf("Could not find a task with the %s '%s'. Please check the task name and try again.", noun, title),
			}
		}
		return &Result{
			Err:     fmt.Sprintf("An error occurred while looking up the task: %s", err),
			Message: "Sorry, I couldn't look up that task. Please try again.",
		}
	}
	if consume {
		delete(args, key)
	}
	args[argTaskID] = t.ID
	return nil
}

// asTaskID coerces a raw argument value into an int64 task identifier.
// JSON numbers arrive as float64; the interpreter also emits numeric strings.
func asTaskID(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case json.Number:
		id, err := x.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// asString returns v as a non-empty string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}
