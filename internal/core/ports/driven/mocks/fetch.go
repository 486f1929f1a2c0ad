package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure MockFetchStrategy implements FetchStrategy
var _ driven.FetchStrategy = (*MockFetchStrategy)(nil)

// MockFetchStrategy returns canned HTML per URL and counts calls
type MockFetchStrategy struct {
	mu     sync.RWMutex
	method domain.FetchMethod
	pages  map[string]string
	errs   map[string]error
	calls  []string

	// Err is returned for every URL without its own page or error
	Err error
}

// NewMockFetchStrategy creates a new MockFetchStrategy reporting the given method
func NewMockFetchStrategy(method domain.FetchMethod) *MockFetchStrategy {
	return &MockFetchStrategy{
		method: method,
		pages:  make(map[string]string),
		errs:   make(map[string]error),
	}
}

// SetPage sets the HTML returned for url
func (m *MockFetchStrategy) SetPage(url, html string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[url] = html
	delete(m.errs, url)
}

// SetError makes fetches of url fail with err
func (m *MockFetchStrategy) SetError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

func (m *MockFetchStrategy) Fetch(ctx context.Context, url string) (*domain.FetchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)

	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	html, ok := m.pages[url]
	if !ok {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, domain.NewFetchError(url, "no page configured", nil)
	}
	return &domain.FetchResult{URL: url, HTML: html, Method: m.method, StatusCode: 200}, nil
}

func (m *MockFetchStrategy) Method() domain.FetchMethod {
	return m.method
}

// Calls returns how many times Fetch was called
func (m *MockFetchStrategy) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// CalledWith returns the URLs passed to Fetch in order
func (m *MockFetchStrategy) CalledWith() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}
