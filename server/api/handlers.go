// Package api implements the taskchat REST handlers: the chat turn endpoint
// and the conventional task CRUD endpoints, all scoped by user.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"taskchat/bot"
	"taskchat/chat"
	"taskchat/task"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Bot     *bot.Bot
	Tasks   task.Store
	Logger  *slog.Logger
	Version string
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/{user_id}/chat", h.chatTurn)

	mux.HandleFunc("GET /api/{user_id}/tasks", h.listTasks)
	mux.HandleFunc("POST /api/{user_id}/tasks", h.createTask)
	mux.HandleFunc("GET /api/{user_id}/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/{user_id}/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/{user_id}/tasks/{id}", h.deleteTask)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathUser extracts the path user ID and verifies it against the
// authenticated subject. A mismatch is a hard 403 before any core logic runs.
func (h *Handlers) pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.PathValue("user_id")
	if userID != SubjectFromContext(r.Context()) {
		writeError(w, http.StatusForbidden, "not authorized to access this user's data")
		return "", false
	}
	return userID, true
}

// --- Chat handler ---

// chatRequest is the body accepted by POST /api/{user_id}/chat.
type chatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
}

func (h *Handlers) chatTurn(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.Bot.ProcessTurn(r.Context(), userID, req.Message, req.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.Logger.Error("chat turn", slog.String("user", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "chat turn failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Task handlers ---

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	t, err := h.Tasks.Create(userID, req.Title, req.Description, task.Priority(req.Priority))
	if err != nil {
		h.Logger.Error("create task", slog.String("user", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	filter := task.ParseStatusFilter(r.URL.Query().Get("status"))
	tasks, err := h.Tasks.List(userID, filter)
	if err != nil {
		h.Logger.Error("list tasks", slog.String("user", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	t, err := h.Tasks.Get(userID, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.Tasks.Update(userID, id, task.Update{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Logger.Error("update task", slog.String("user", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.Tasks.Delete(userID, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Logger.Error("delete task", slog.String("user", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}
