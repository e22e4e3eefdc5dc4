package mocks

import (
	"context"
	"sync"
)

// MockClient implements generation.Client for testing
type MockClient struct {
	// SubmitFn allows test cases to mock the Submit behavior
	SubmitFn func(ctx context.Context, prompt string) (string, error)

	// Scripted results returned in order, one per call. When exhausted the
	// last entry is repeated. Ignored when SubmitFn is set.
	Results []MockResult

	// Default response values used when neither SubmitFn nor Results is set
	Response string
	Err      error

	// Call tracking for verification
	SubmitCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times Submit was called
		Count int

		// Prompts contains all prompts passed to Submit calls
		Prompts []string
	}
}

// MockResult is one scripted Submit outcome.
type MockResult struct {
	Response string
	Err      error
}

// Submit implements the generation.Client interface
func (m *MockClient) Submit(ctx context.Context, prompt string) (string, error) {
	m.SubmitCalls.mu.Lock()
	m.SubmitCalls.Count++
	m.SubmitCalls.Prompts = append(m.SubmitCalls.Prompts, prompt)
	call := m.SubmitCalls.Count
	m.SubmitCalls.mu.Unlock()

	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, prompt)
	}

	if len(m.Results) > 0 {
		idx := call - 1
		if idx >= len(m.Results) {
			idx = len(m.Results) - 1
		}
		return m.Results[idx].Response, m.Results[idx].Err
	}

	return m.Response, m.Err
}

// CallCount returns how many times Submit was called.
func (m *MockClient) CallCount() int {
	m.SubmitCalls.mu.Lock()
	defer m.SubmitCalls.mu.Unlock()
	return m.SubmitCalls.Count
}

// LastPrompt returns the prompt of the most recent Submit call.
func (m *MockClient) LastPrompt() string {
	m.SubmitCalls.mu.Lock()
	defer m.SubmitCalls.mu.Unlock()
	if len(m.SubmitCalls.Prompts) == 0 {
		return ""
	}
	return m.SubmitCalls.Prompts[len(m.SubmitCalls.Prompts)-1]
}

// NewMockClientWithResponse creates a MockClient that always returns response.
func NewMockClientWithResponse(response string) *MockClient {
	return &MockClient{Response: response}
}

// NewMockClientWithError creates a MockClient that always fails with err.
func NewMockClientWithError(err error) *MockClient {
	return &MockClient{Err: err}
}

// NewBlockingMockClient creates a MockClient whose Submit blocks until
// release is closed or ctx is done, then returns response.
func NewBlockingMockClient(release <-chan struct{}, response string) *MockClient {
	return &MockClient{
		SubmitFn: func(ctx context.Context, _ string) (string, error) {
			select {
			case <-release:
				return response, nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	}
}
