// Package mock provides a scripted intent interpreter for testing.
package mock

import (
	"context"

	"taskchat/provider"
)

const defaultResponse = "Processing your request..."

// MockProvider implements provider.Provider for testing.
// It returns scripted responses, including tool calls, and can simulate
// interpreter failures.
type MockProvider struct {
	responses []*provider.Response
	errs      []error
	idx       int
}

// New creates a MockProvider that cycles through the given responses.
func New(responses ...*provider.Response) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewError creates a MockProvider whose Chat always returns err.
func NewError(err error) *MockProvider {
	return &MockProvider{errs: []error{err}}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Chat returns the next scripted response, cycling through the queue.
func (m *MockProvider) Chat(_ context.Context, _ []provider.Message, _ []provider.ToolDef) (*provider.Response, error) {
	if len(m.errs) > 0 {
		return nil, m.errs[m.idx%len(m.errs)]
	}
	if len(m.responses) == 0 {
		return &provider.Response{Content: defaultResponse}, nil
	}
	resp := m.responses[m.idx%len(m.responses)]
	m.idx++
	return resp, nil
}
