package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"taskchat/bot"
	"taskchat/chat"
	"taskchat/config"
	"taskchat/provider"
	"taskchat/provider/mock"
	"taskchat/storage"
	"taskchat/task"
)

// newTestServer builds a fully wired server over a temp database, with the
// interpreter scripted to the given responses.
func newTestServer(t *testing.T, responses ...*provider.Response) *Server {
	t.Helper()
	return newTestServerWith(t, mock.New(responses...))
}

// newTestServerWith is newTestServer with an explicit interpreter, for
// scripting faults.
func newTestServerWith(t *testing.T, p provider.Provider) *Server {
	t.Helper()

	f, err := os.CreateTemp("", "taskchat-server-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tasks, err := task.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("task.NewSQLiteStore: %v", err)
	}
	chats, err := chat.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("chat.NewSQLiteStore: %v", err)
	}
	users, err := NewUserStore(db)
	if err != nil {
		t.Fatalf("NewUserStore: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{}
	cfg.Server.Addr = ":0"
	cfg.Auth.JWTSecret = "test-secret-key-1234567890"

	s := New(cfg, "test", logger)
	s.SetBot(bot.New(p, tasks, chats, logger))
	s.SetTaskStore(tasks)
	s.SetUserStore(users)
	s.registerRoutes()
	return s
}

// doJSON performs a request against the server mux with an optional JSON body
// and bearer token.
func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

// registerUser creates an account and returns its token and user ID.
func registerUser(t *testing.T, s *Server, username string) (token, userID string) {
	t.Helper()
	rr := doJSON(t, s, http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": username, "password": "hunter22"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp tokenResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.Token == "" || resp.UserID == "" {
		t.Fatalf("register: incomplete response %+v", resp)
	}
	return resp.Token, resp.UserID
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
