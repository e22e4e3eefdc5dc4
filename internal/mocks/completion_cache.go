package mocks

import (
	"context"
	"sync"
)

// MockCache implements pipeline.Cache with an in-memory map
type MockCache struct {
	// GetErr and SetErr, when set, are returned instead of touching the map
	GetErr error
	SetErr error

	mu      sync.Mutex
	entries map[string]string

	// Call counters for verification
	GetCount    int
	SetCount    int
	DeleteCount int
}

// NewMockCache creates a MockCache pre-populated with entries.
func NewMockCache(entries map[string]string) *MockCache {
	m := &MockCache{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

// Get implements pipeline.Cache
func (m *MockCache) Get(_ context.Context, prompt string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCount++
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	raw, ok := m.entries[prompt]
	return raw, ok, nil
}

// Set implements pipeline.Cache
func (m *MockCache) Set(_ context.Context, prompt, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCount++
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	m.entries[prompt] = raw
	return nil
}

// Delete implements pipeline.Cache
func (m *MockCache) Delete(_ context.Context, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCount++
	delete(m.entries, prompt)
	return nil
}

// Entry returns the cached value for prompt.
func (m *MockCache) Entry(prompt string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[prompt]
	return raw, ok
}

// Len returns the number of cached entries.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
