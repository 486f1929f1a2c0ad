package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
)

// hashLockName converts a string lock name to a 64-bit integer for PostgreSQL advisory locks.
// Uses FNV-1a hash for consistent, well-distributed values.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("policylens:lock:" + name))
	return int64(h.Sum64())
}

// lockURL takes a transaction-scoped advisory lock on url.
// The lock is released when the transaction commits or rolls back.
func lockURL(ctx context.Context, q querier, url string) error {
	if _, err := q.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", hashLockName(url)); err != nil {
		return fmt.Errorf("failed to lock policy url: %w", err)
	}
	return nil
}
