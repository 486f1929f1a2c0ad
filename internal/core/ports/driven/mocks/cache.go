package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure MockCache implements Cache
var _ driven.Cache = (*MockCache)(nil)

// MockCache is an in-memory Cache for testing. TTLs are recorded, not enforced.
// Set GetErr/SetErr to simulate a failing backend.
type MockCache struct {
	mu     sync.RWMutex
	values map[string][]byte
	ttls   map[string]time.Duration

	GetErr error
	SetErr error

	Gets int
	Sets int
}

// NewMockCache creates a new MockCache
func NewMockCache() *MockCache {
	return &MockCache{
		values: make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.ttls, key)
	return nil
}

func (m *MockCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string][]byte)
	m.ttls = make(map[string]time.Duration)
	return nil
}

func (m *MockCache) Name() string {
	return "mock"
}

// Has reports whether key is stored
func (m *MockCache) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}

// TTL returns the TTL recorded for key
func (m *MockCache) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[key]
}
