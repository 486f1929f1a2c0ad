package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure MockAnalysisProvider implements AnalysisProvider
var _ driven.AnalysisProvider = (*MockAnalysisProvider)(nil)

// MockAnalysisProvider returns a canned response and records prompts
type MockAnalysisProvider struct {
	mu       sync.RWMutex
	name     domain.AIProvider
	response string
	err      error
	prompts  []string
}

// NewMockAnalysisProvider creates a provider that answers with response
func NewMockAnalysisProvider(name domain.AIProvider, response string) *MockAnalysisProvider {
	return &MockAnalysisProvider{name: name, response: response}
}

// SetResponse replaces the canned response and clears any error
func (m *MockAnalysisProvider) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	m.err = nil
}

// SetError makes every call fail with err
func (m *MockAnalysisProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockAnalysisProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, userPrompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *MockAnalysisProvider) Name() domain.AIProvider {
	return m.name
}

func (m *MockAnalysisProvider) Model() string {
	return "mock-model"
}

func (m *MockAnalysisProvider) Ping(ctx context.Context) error {
	return nil
}

func (m *MockAnalysisProvider) Close() error {
	return nil
}

// Calls returns how many times Complete was called
func (m *MockAnalysisProvider) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent user prompt, empty if never called
func (m *MockAnalysisProvider) LastPrompt() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
