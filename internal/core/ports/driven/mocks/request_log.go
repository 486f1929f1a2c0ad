package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure MockRequestLogStore implements RequestLogStore
var _ driven.RequestLogStore = (*MockRequestLogStore)(nil)

// MockRequestLogStore collects request log entries in memory
type MockRequestLogStore struct {
	mu      sync.RWMutex
	entries []*domain.AnalysisRequestLog

	// Err makes Append fail
	Err error
}

// NewMockRequestLogStore creates a new MockRequestLogStore
func NewMockRequestLogStore() *MockRequestLogStore {
	return &MockRequestLogStore{}
}

func (m *MockRequestLogStore) Append(ctx context.Context, entry *domain.AnalysisRequestLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockRequestLogStore) CountByURL(ctx context.Context, url string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, e := range m.entries {
		if e.URL == url {
			n++
		}
	}
	return n, nil
}

// Entries returns the logged entries in order
func (m *MockRequestLogStore) Entries() []*domain.AnalysisRequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AnalysisRequestLog(nil), m.entries...)
}
