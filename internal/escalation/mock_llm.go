package escalation

import (
	"context"
	"sync"

	"github.com/samber/mo"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Complete.
	// If empty, Complete reports that the provider returned no usable text.
	Response string

	// Error, if set, is returned by Complete instead of a response.
	Error error

	mu         sync.Mutex
	calls      int
	lastSystem string
	lastUser   string
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Complete records the request and returns the configured response.
func (m *MockLLM) Complete(ctx context.Context, system, user string) (mo.Option[string], error) {
	m.mu.Lock()
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	m.mu.Unlock()

	if m.Error != nil {
		return mo.None[string](), m.Error
	}
	return usableText(m.Response), nil
}

// Calls returns how many times Complete was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent system instruction and user text.
func (m *MockLLM) LastRequest() (system, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem, m.lastUser
}
