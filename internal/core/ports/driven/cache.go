package driven

import (
	"context"
	"time"
)

// Cache is a keyed byte store with per-entry TTL.
// Get returns domain.ErrNotFound on a miss or an expired entry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Clear removes every entry this cache owns
	Clear(ctx context.Context) error

	// Name identifies the backend (memory, redis)
	Name() string
}
