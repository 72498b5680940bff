package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const (
	defaultCohereBaseURL = "https://api.cohere.com"
	defaultCohereModel   = "command-r-08-2024"
)

// CohereConfig holds configuration for the Cohere provider.
type CohereConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// CohereProvider implements Provider using the Cohere v2 Chat API.
type CohereProvider struct {
	config CohereConfig
}

// NewCohereProvider creates a new Cohere provider with the given config.
func NewCohereProvider(cfg CohereConfig) *CohereProvider {
	if cfg.Model == "" {
		cfg.Model = defaultCohereModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCohereBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &CohereProvider{config: cfg}
}

func (p *CohereProvider) Name() string { return "cohere" }

// cohereRequest is the request body for the v2 Chat API.
type cohereRequest struct {
	Model    string          `json:"model"`
	Messages []cohereMessage `json:"messages"`
	Tools    []cohereTool    `json:"tools,omitempty"`
}

type cohereMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cohereTool struct {
	Type     string         `json:"type"` // always "function"
	Function cohereFunction `json:"function"`
}

type cohereFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// cohereResponse is the response from the v2 Chat API.
type cohereResponse struct {
	Message      cohereRespMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type cohereRespMessage struct {
	Content   []cohereContent  `json:"content"`
	ToolCalls []cohereToolCall `json:"tool_calls"`
}

type cohereContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cohereToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // raw JSON object
	} `json:"function"`
}

func (p *CohereProvider) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Response, error) {
	reqBody := cohereRequest{Model: p.config.Model}
	for _, msg := range messages {
		reqBody.Messages = append(reqBody.Messages, cohereMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	for _, t := range tools {
		schema := t.Parameters
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		reqBody.Tools = append(reqBody.Tools, cohereTool{
			Type: "function",
			Function: cohereFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		})
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("cohere: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v2/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cohere: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cohere: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere: API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp cohereResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("cohere: unmarshal response: %w", err)
	}

	return p.parseResponse(&apiResp), nil
}

func (p *CohereProvider) parseResponse(apiResp *cohereResponse) *Response {
	resp := &Response{}

	var textParts []string
	for _, item := range apiResp.Message.Content {
		if item.Type == "text" {
			textParts = append(textParts, item.Text)
		}
	}
	resp.Content = strings.Join(textParts, "")

	for _, tc := range apiResp.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: parseArguments(tc.Function.Arguments),
		})
	}
	return resp
}

// parseArguments decodes a tool call's raw argument JSON. Models sometimes
// emit malformed JSON; when direct parsing fails the payload is run through
// jsonrepair before giving up and returning an empty map.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return map[string]any{}
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return map[string]any{}
	}
	return args
}
