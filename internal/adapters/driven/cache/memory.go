package cache

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Cache = (*Memory)(nil)

// DefaultSweepInterval is how often expired entries are purged
const DefaultSweepInterval = 5 * time.Minute

// Memory is an in-process TTL cache.
// Expired entries are dropped lazily on read and by a periodic sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemory creates a Memory cache. A positive sweep interval starts the background sweep;
// call Close to stop it.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]*domain.CacheEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweepLoop(sweepInterval)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	if entry.Expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it
		if current, ok := m.entries[key]; ok && current == entry {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return entry.Value, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &domain.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]*domain.CacheEntry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Name() string {
	return "memory"
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep removes every expired entry and returns how many were removed
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Close stops the background sweep
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
