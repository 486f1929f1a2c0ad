package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure MockPolicyStore implements PolicyStore
var _ driven.PolicyStore = (*MockPolicyStore)(nil)

// MockPolicyStore is a mock implementation of PolicyStore for testing
type MockPolicyStore struct {
	mu      sync.RWMutex
	records map[string]*domain.PolicyRecord
	byURL   map[string][]*domain.PolicyRecord
	history map[string][]*domain.PolicyHistoryEntry
	touches int

	// SaveErr makes SaveVersion fail without writing anything
	SaveErr error
}

// NewMockPolicyStore creates a new MockPolicyStore
func NewMockPolicyStore() *MockPolicyStore {
	return &MockPolicyStore{
		records: make(map[string]*domain.PolicyRecord),
		byURL:   make(map[string][]*domain.PolicyRecord),
		history: make(map[string][]*domain.PolicyHistoryEntry),
	}
}

func (m *MockPolicyStore) GetByURL(ctx context.Context, url string) (*domain.PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.byURL[url]
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}
	latest := *versions[len(versions)-1]
	return &latest, nil
}

func (m *MockPolicyStore) Get(ctx context.Context, id string) (*domain.PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *MockPolicyStore) SaveVersion(ctx context.Context, record *domain.PolicyRecord) (*domain.SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}

	var previous *domain.PolicyRecord
	if versions := m.byURL[record.URL]; len(versions) > 0 {
		previous = versions[len(versions)-1]
	}

	if previous != nil && previous.StoredHash() == record.ContentHash {
		previous.LastChecked = record.LastChecked
		if !previous.Analysis.Cacheable() {
			previous.Analysis = record.Analysis
		}
		m.touches++
		cp := *previous
		return &domain.SaveResult{PolicyID: cp.ID, IsNew: false, Record: &cp}, nil
	}

	stored := *record
	stored.Version = 1
	if previous != nil {
		stored.Version = previous.Version + 1
		stored.CreatedAt = previous.CreatedAt
	}
	m.records[stored.ID] = &stored
	m.byURL[stored.URL] = append(m.byURL[stored.URL], &stored)

	if previous != nil {
		m.history[stored.URL] = append(m.history[stored.URL], &domain.PolicyHistoryEntry{
			ID:              "history-" + previous.ID,
			PolicyID:        previous.ID,
			SupersededBy:    stored.ID,
			Version:         previous.Version,
			SnapshotDate:    stored.LastChecked,
			RawText:         previous.RawText,
			Summary:         previous.Analysis.Summary,
			Score:           previous.Analysis.Score,
			ChangesDetected: true,
		})
	}

	cp := stored
	return &domain.SaveResult{PolicyID: cp.ID, IsNew: true, Record: &cp}, nil
}

func (m *MockPolicyStore) ListVersions(ctx context.Context, url string) ([]*domain.PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := make([]*domain.PolicyRecord, 0, len(m.byURL[url]))
	for _, r := range m.byURL[url] {
		cp := *r
		versions = append(versions, &cp)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version > versions[j].Version })
	return versions, nil
}

func (m *MockPolicyStore) ListHistory(ctx context.Context, url string) ([]*domain.PolicyHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := append([]*domain.PolicyHistoryEntry(nil), m.history[url]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version > entries[j].Version })
	return entries, nil
}

// Touches returns how many saves only moved last_checked
func (m *MockPolicyStore) Touches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.touches
}

// HistoryCount returns the number of history snapshots for url
func (m *MockPolicyStore) HistoryCount(url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history[url])
}
