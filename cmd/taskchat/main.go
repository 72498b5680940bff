// Command taskchat is the taskchat CLI client.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"taskchat/internal/version"
	"taskchat/update"
)

const defaultServer = "http://localhost:8080"

func main() {
	var (
		serverURL = flag.String("server", defaultServer, "taskchat server URL")
		token     = flag.String("token", os.Getenv("TASKCHAT_TOKEN"), "JWT auth token")
		userID    = flag.String("user", os.Getenv("TASKCHAT_USER"), "user ID for task and chat commands")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cli := &Client{
		BaseURL:    strings.TrimRight(*serverURL, "/"),
		Token:      *token,
		UserID:     *userID,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "version":
		err = cmdVersion(rest)
	case "status":
		err = cli.cmdStatus(rest)
	case "register":
		err = cli.cmdRegister(rest)
	case "login":
		err = cli.cmdLogin(rest)
	case "chat":
		err = cli.cmdChat(rest)
	case "tasks":
		err = cli.cmdTasks(rest)
	case "update":
		err = cmdUpdate(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `taskchat — taskchat CLI

Usage:
  taskchat [flags] <command> [args]

Flags:
  --server  <url>    server URL (default: http://localhost:8080)
  --token   <token>  JWT auth token (or $TASKCHAT_TOKEN)
  --user    <id>     user ID (or $TASKCHAT_USER)

Commands:
  version                       print version
  status                        show server status
  register <username> <pass>    create an account and print a token
  login <username> <pass>       print a fresh token
  chat <message...>             send a chat message
  tasks                         list your tasks
  update                        self-update to the latest release
`)
}

// --- version ---

func cmdVersion(_ []string) error {
	fmt.Println(version.String())
	return nil
}

// --- update ---

func cmdUpdate(_ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	u := update.New(version.Version)
	rel, err := u.Check(ctx)
	if err != nil {
		return fmt.Errorf("check for update: %w", err)
	}
	if rel == nil {
		fmt.Printf("already up to date (%s)\n", version.Version)
		return nil
	}
	fmt.Printf("updating %s -> %s\n", version.Version, rel.Version)
	if err := u.Apply(ctx, rel); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}
	fmt.Println("update complete")
	return nil
}

// Client holds HTTP client state for CLI commands.
type Client struct {
	BaseURL    string
	Token      string
	UserID     string
	HTTPClient *http.Client
}

// get performs a GET and decodes JSON into v.
func (c *Client) get(path string, v any) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// post performs a POST and decodes JSON response into v (may be nil).
func (c *Client) post(path string, body io.Reader, v any) error {
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if v != nil && resp.ContentLength != 0 {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

func (c *Client) requireUser() error {
	if c.UserID == "" {
		return fmt.Errorf("user ID required (--user or $TASKCHAT_USER)")
	}
	return nil
}

// --- status ---

func (c *Client) cmdStatus(_ []string) error {
	var result map[string]any
	if err := c.get("/api/status", &result); err != nil {
		return err
	}
	fmt.Printf("status:  %s\n", strVal(result["status"]))
	fmt.Printf("version: %s\n", strVal(result["version"]))
	fmt.Printf("uptime:  %s\n", strVal(result["uptime"]))
	return nil
}

// --- auth ---

func (c *Client) cmdRegister(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: taskchat register <username> <password>")
	}
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, args[0], args[1])
	var result map[string]any
	if err := c.post("/api/auth/register", strings.NewReader(body), &result); err != nil {
		return err
	}
	fmt.Printf("user_id: %s\ntoken:   %s\n", strVal(result["user_id"]), strVal(result["token"]))
	return nil
}

func (c *Client) cmdLogin(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: taskchat login <username> <password>")
	}
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, args[0], args[1])
	var result map[string]any
	if err := c.post("/api/auth/login", strings.NewReader(body), &result); err != nil {
		return err
	}
	fmt.Printf("user_id: %s\ntoken:   %s\n", strVal(result["user_id"]), strVal(result["token"]))
	return nil
}

// --- chat ---

func (c *Client) cmdChat(args []string) error {
	if err := c.requireUser(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: taskchat chat <message>")
	}
	message := strings.Join(args, " ")
	body := fmt.Sprintf(`{"message":%q}`, message)
	var result map[string]any
	if err := c.post("/api/"+c.UserID+"/chat", strings.NewReader(body), &result); err != nil {
		return err
	}
	fmt.Println(strVal(result["response"]))
	return nil
}

// --- tasks ---

func (c *Client) cmdTasks(_ []string) error {
	if err := c.requireUser(); err != nil {
		return err
	}
	var tasks []map[string]any
	if err := c.get("/api/"+c.UserID+"/tasks", &tasks); err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	fmt.Printf("%-6s %-40s %-10s %-10s\n", "ID", "TITLE", "PRIORITY", "DONE")
	fmt.Println(strings.Repeat("-", 70))
	for _, t := range tasks {
		fmt.Printf("%-6s %-40s %-10s %-10s\n",
			strVal(t["id"]),
			truncate(strVal(t["title"]), 39),
			strVal(t["priority"]),
			strVal(t["completed"]),
		)
	}
	return nil
}

// --- helpers ---

func strVal(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
