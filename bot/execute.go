package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"taskchat/task"
)

// Result is the structured outcome of one tool invocation.
type Result struct {
	OK      bool         `json:"success"`
	Message string       `json:"message,omitempty"` // user-facing, substituted into the reply
	Err     string       `json:"error,omitempty"`   // machine-readable
	Task    *task.Task   `json:"task,omitempty"`
	Tasks   []*task.Task `json:"tasks,omitempty"`
}

// Executor dispatches normalized invocations to the task store. It never
// returns an error: store faults are converted into failure Results with an
// apologetic user message.
type Executor struct {
	tasks  task.Store
	logger *slog.Logger
}

// NewExecutor creates an Executor backed by the given task store.
func NewExecutor(tasks task.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{tasks: tasks, logger: logger}
}

// Execute runs one normalized invocation and captures its outcome.
func (e *Executor) Execute(inv *Invocation) *Result {
	switch inv.Name {
	case toolAddTask:
		return e.addTask(inv)
	case toolListTasks:
		return e.listTasks(inv)
	case toolCompleteTask:
		return e.completeTask(inv)
	case toolDeleteTask:
		return e.deleteTask(inv)
	case toolUpdateTask:
		return e.updateTask(inv)
	}
	return &Result{Err: fmt.Sprintf("Unknown tool: %s", inv.Name)}
}

func (e *Executor) addTask(inv *Invocation) *Result {
	userID, _ := asString(inv.Args[argUserID])
	title, _ := asString(inv.Args[argTitle])
	description, _ := inv.Args[argDescription].(string)

	t, err := e.tasks.Create(userID, title, description, task.PriorityMedium)
	if err != nil {
		e.logger.Error("add task", slog.String("user", userID), slog.Any("err", err))
		return &Result{
			Err:     fmt.Sprintf("An error occurred while adding the task: %s", err),
			Message: fmt.Sprintf("Sorry, I couldn't add the task '%s'. Please try again.", title),
		}
	}
	return &Result{
		OK:      true,
		Task:    t,
		Message: fmt.Sprintf("Task '%s' has been added successfully.", title),
	}
}

func (e *Executor) listTasks(inv *Invocation) *Result {
	userID, _ := asString(inv.Args[argUserID])
	status, _ := inv.Args[argStatus].(string)
	filter := task.ParseStatusFilter(status)

	tasks, err := e.tasks.List(userID, filter)
	if err != nil {
		e.logger.Error("list tasks", slog.String("user", userID), slog.Any("err", err))
		return &Result{
			Err:     fmt.Sprintf("An error occurred while listing tasks: %s", err),
			Message: "Sorry, I couldn't retrieve your tasks. Please try again.",
		}
	}

	statusText := ""
	if filter != task.StatusAll {
		statusText = fmt.Sprintf(" (%s)", filter)
	}

	var message string
	switch len(tasks) {
	case 0:
		message = fmt.Sprintf("You have no tasks%s.", statusText)
	case 1:
		message = fmt.Sprintf("You have 1 task%s: %d. %s", statusText, tasks[0].ID, tasks[0].Title)
	default:
		items := make([]string, len(tasks))
		for i, t := range tasks {
			items[i] = fmt.Sprintf("%d. %s", t.ID, t.Title)
		}
		message = fmt.Sprintf("You have %d tasks%s: %s", len(tasks), statusText, strings.Join(items, "; "))
	}

	return &Result{OK: true, Tasks: tasks, Message: message}
}

func (e *Executor) completeTask(inv *Invocation) *Result {
	userID, _ := asString(inv.Args[argUserID])
	id, _ := asTaskID(inv.Args[argTaskID])

	completed := true
	t, err := e.tasks.Update(userID, id, task.Update{Completed: &completed})
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return notFoundResult(id)
		}
		e.logger.Error("complete task", slog.String("user", userID), slog.Int64("task", id), slog.Any("err", err))
		return &Result{
			Err:     fmt.Sprintf("An error occurred while completing the task: %s", err),
			Message: "Sorry, I couldn't complete the task. Please try again.",
		}
	}
	return &Result{
		OK:      true,
		Task:    t,
		Message: fmt.Sprintf("Task '%s' has been marked as completed.", t.Title),
	}
}

func (e *Executor) deleteTask(inv *Invocation) *Result {
	userID, _ := asString(inv.Args[argUserID])
	id, _ := asTaskID(inv.Args[argTaskID])

	if err := e.tasks.Delete(userID, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return notFoundResult(id)
		}
		e.logger.Error("delete task", slog.String("user", userID), slog.Int64("task", id), slog.Any("err", err))
		return &Result{
			Err:     fmt.Sprintf("An error occurred while deleting the task: %s", err),
			Message: "Sorry, I couldn't delete the task. Please try again.",
		}
	}
	return &Result{
		OK:      true,
		Message: fmt.Sprintf("Task with ID %d has been deleted.", id),
	}
}

func (e *Executor) updateTask(inv *Invocation) *Result {
	userID, _ := asString(inv.Args[argUserID])
	id, _ := asTaskID(inv.Args[argTaskID])

	var upd task.Update
	var changes []string
	if title, ok := asString(inv.Args[argTitle]); ok {
		upd.Title = &title
		changes = append(changes, fmt.Sprintf("title to '%s'", title))
	}
	if description, ok := inv.Args[argDescription].(string); ok {
		upd.Description = &description
		changes = append(changes, fmt.Sprintf("description to '%s'", description))
	}

	t, err := e.tasks.Update(userID, id, upd)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return notFoundResult(id)
		}
		e.logger.Error("update task", slog.String("user", userID), slog.Int64("task", id), slog.Any("err", err))
		return &Result{
			Err:     fmt.Sprintf("An error occurred while updating the task: %s", err),
			Message: "Sorry, I couldn't update the task. Please try again.",
		}
	}
	return &Result{
		OK:      true,
		Task:    t,
		Message: fmt.Sprintf("Task '%s' has been updated (%s).", t.Title, strings.Join(changes, " and ")),
	}
}

func notFoundResult(id int64) *Result {
	return &Result{
		Err:     fmt.Sprintf("Task with ID %d not found.", id),
		Message: fmt.Sprintf("I couldn't find a task with ID %d. Could you please check the task ID?", id),
	}
}
