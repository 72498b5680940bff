package bot

import "taskchat/provider"

// Tool names form the fixed set the bot knows how to execute.
const (
	toolAddTask      = "add_task"
	toolListTasks    = "list_tasks"
	toolCompleteTask = "complete_task"
	toolDeleteTask   = "delete_task"
	toolUpdateTask   = "update_task"
)

// toolDefs are the tool schemas advertised to the intent interpreter.
var toolDefs = []provider.ToolDef{
	{
		Name:        toolAddTask,
		Description: "Add a new task for the user",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "description": "The title of the task"},
				"description": map[string]any{"type": "string", "description": "The description of the task"},
			},
			"required": []string{"title"},
		},
	},
	{
		Name:        toolListTasks,
		Description: "List tasks for the user",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "description": "Filter tasks by status (all, pending, completed)"},
			},
		},
	},
	{
		Name:        toolCompleteTask,
		Description: "Mark a task as completed",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "integer", "description": "The ID of the task to complete"},
			},
			"required": []string{"task_id"},
		},
	},
	{
		Name:        toolDeleteTask,
		Description: "Delete a task",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "integer", "description": "The ID of the task to delete"},
			},
			"required": []string{"task_id"},
		},
	},
	{
		Name:        toolUpdateTask,
		Description: "Update a task's details",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id":     map[string]any{"type": "integer", "description": "The ID of the task to update"},
				"title":       map[string]any{"type": "string", "description": "The new title of the task"},
				"description": map[string]any{"type": "string", "description": "The new description of the task"},
			},
			"required": []string{"task_id"},
		},
	},
}
