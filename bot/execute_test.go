package bot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskchat/task"
)

func inv(name string, args map[string]any) *Invocation {
	if args == nil {
		args = map[string]any{}
	}
	args[argUserID] = "alice"
	return &Invocation{Name: name, Args: args}
}

func TestExecute_AddTask(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	res := e.Execute(inv("add_task", map[string]any{"title": "Buy milk", "description": "2 liters"}))
	require.True(t, res.OK)
	assert.Equal(t, "Task 'Buy milk' has been added successfully.", res.Message)
	require.NotNil(t, res.Task)
	assert.Equal(t, "Buy milk", res.Task.Title)
	assert.Equal(t, task.PriorityMedium, res.Task.Priority)
	assert.False(t, res.Task.Completed)
}

func TestExecute_ListMessages(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	res := e.Execute(inv("list_tasks", nil))
	require.True(t, res.OK)
	assert.Equal(t, "You have no tasks.", res.Message)

	one := e.Execute(inv("add_task", map[string]any{"title": "Buy milk"}))
	require.True(t, one.OK)

	res = e.Execute(inv("list_tasks", nil))
	require.True(t, res.OK)
	assert.Equal(t, fmt.Sprintf("You have 1 task: %d. Buy milk", one.Task.ID), res.Message)

	two := e.Execute(inv("add_task", map[string]any{"title": "Walk dog"}))
	require.True(t, two.OK)

	res = e.Execute(inv("list_tasks", nil))
	require.True(t, res.OK)
	assert.Equal(t,
		fmt.Sprintf("You have 2 tasks: %d. Buy milk; %d. Walk dog", one.Task.ID, two.Task.ID),
		res.Message)
}

func TestExecute_ListStatusFilter(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	added := e.Execute(inv("add_task", map[string]any{"title": "Buy milk"}))
	require.True(t, added.OK)
	done := e.Execute(inv("complete_task", map[string]any{"task_id": added.Task.ID}))
	require.True(t, done.OK)
	pendingTask := e.Execute(inv("add_task", map[string]any{"title": "Walk dog"}))
	require.True(t, pendingTask.OK)

	res := e.Execute(inv("list_tasks", map[string]any{"status": "completed"}))
	require.True(t, res.OK)
	assert.Equal(t, fmt.Sprintf("You have 1 task (completed): %d. Buy milk", added.Task.ID), res.Message)

	res = e.Execute(inv("list_tasks", map[string]any{"status": "pending"}))
	require.True(t, res.OK)
	assert.Len(t, res.Tasks, 1)
	assert.Equal(t, "Walk dog", res.Tasks[0].Title)

	// Unrecognized filter behaves as "all".
	res = e.Execute(inv("list_tasks", map[string]any{"status": "bogus"}))
	require.True(t, res.OK)
	assert.Len(t, res.Tasks, 2)
}

func TestExecute_CompleteTask(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	added := e.Execute(inv("add_task", map[string]any{"title": "Buy milk"}))
	require.True(t, added.OK)

	res := e.Execute(inv("complete_task", map[string]any{"task_id": added.Task.ID}))
	require.True(t, res.OK)
	assert.Equal(t, "Task 'Buy milk' has been marked as completed.", res.Message)
	assert.True(t, res.Task.Completed)
}

func TestExecute_CompleteNotFound(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	res := e.Execute(inv("complete_task", map[string]any{"task_id": int64(42)}))
	assert.False(t, res.OK)
	assert.Equal(t, "Task with ID 42 not found.", res.Err)
	assert.Equal(t, "I couldn't find a task with ID 42. Could you please check the task ID?", res.Message)

	// No mutation happened.
	all, err := tasks.List("alice", task.StatusAll)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestExecute_UpdateTask(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	added := e.Execute(inv("add_task", map[string]any{"title": "Buy milk", "description": "2 liters"}))
	require.True(t, added.OK)

	res := e.Execute(inv("update_task", map[string]any{
		"task_id": added.Task.ID,
		"title":   "Buy oat milk",
	}))
	require.True(t, res.OK)
	assert.Equal(t, "Task 'Buy oat milk' has been updated (title to 'Buy oat milk').", res.Message)
	assert.Equal(t, "2 liters", res.Task.Description, "absent fields stay unchanged")

	res = e.Execute(inv("update_task", map[string]any{
		"task_id":     added.Task.ID,
		"title":       "Buy soy milk",
		"description": "1 liter",
	}))
	require.True(t, res.OK)
	assert.Equal(t,
		"Task 'Buy soy milk' has been updated (title to 'Buy soy milk' and description to '1 liter').",
		res.Message)
}

func TestExecute_DeleteTask(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	added := e.Execute(inv("add_task", map[string]any{"title": "Buy milk"}))
	require.True(t, added.OK)

	res := e.Execute(inv("delete_task", map[string]any{"task_id": added.Task.ID}))
	require.True(t, res.OK)
	assert.Equal(t, fmt.Sprintf("Task with ID %d has been deleted.", added.Task.ID), res.Message)

	res = e.Execute(inv("delete_task", map[string]any{"task_id": added.Task.ID}))
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "not found")
}

func TestExecute_Lifecycle(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	added := e.Execute(inv("add_task", map[string]any{"title": "Buy milk"}))
	require.True(t, added.OK)
	id := added.Task.ID

	listed := e.Execute(inv("list_tasks", nil))
	require.True(t, listed.OK)
	require.Len(t, listed.Tasks, 1)

	updated := e.Execute(inv("update_task", map[string]any{"task_id": id, "title": "Buy oat milk"}))
	require.True(t, updated.OK)

	completed := e.Execute(inv("complete_task", map[string]any{"task_id": id}))
	require.True(t, completed.OK)
	assert.Equal(t, "Task 'Buy oat milk' has been marked as completed.", completed.Message)

	deleted := e.Execute(inv("delete_task", map[string]any{"task_id": id}))
	require.True(t, deleted.OK)

	final := e.Execute(inv("list_tasks", nil))
	require.True(t, final.OK)
	assert.Empty(t, final.Tasks)
	assert.Equal(t, "You have no tasks.", final.Message)
}

func TestExecute_UnknownTool(t *testing.T) {
	tasks, _ := newTestStores(t)
	e := NewExecutor(tasks, testLogger())

	res := e.Execute(inv("fly_to_moon", nil))
	assert.False(t, res.OK)
	assert.Equal(t, "Unknown tool: fly_to_moon", res.Err)
	assert.Empty(t, res.Message)
}

func TestExecute_StoreFault(t *testing.T) {
	e := NewExecutor(&failingStore{}, testLogger())

	res := e.Execute(inv("add_task", map[string]any{"title": "Buy milk"}))
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "An error occurred while adding the task")
	assert.Equal(t, "Sorry, I couldn't add the task 'Buy milk'. Please try again.", res.Message)

	res = e.Execute(inv("list_tasks", nil))
	assert.False(t, res.OK)
	assert.Equal(t, "Sorry, I couldn't retrieve your tasks. Please try again.", res.Message)

	res = e.Execute(inv("complete_task", map[string]any{"task_id": int64(1)}))
	assert.False(t, res.OK)
	assert.Equal(t, "Sorry, I couldn't complete the task. Please try again.", res.Message)

	res = e.Execute(inv("delete_task", map[string]any{"task_id": int64(1)}))
	assert.False(t, res.OK)
	assert.Equal(t, "Sorry, I couldn't delete the task. Please try again.", res.Message)
}
