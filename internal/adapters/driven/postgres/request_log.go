package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RequestLogStore = (*RequestLogStore)(nil)

// RequestLogStore implements driven.RequestLogStore on the analysis_requests table
type RequestLogStore struct {
	db *DB
}

// NewRequestLogStore creates a new RequestLogStore
func NewRequestLogStore(db *DB) *RequestLogStore {
	return &RequestLogStore{db: db}
}

// Append inserts one request log row
func (s *RequestLogStore) Append(ctx context.Context, entry *domain.AnalysisRequestLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_requests (id, url, user_id, cached, user_agent, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID,
		entry.URL,
		nullStringPtr(entry.UserID),
		entry.Cached,
		entry.UserAgent,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

// CountByURL returns how many requests were logged for url
func (s *RequestLogStore) CountByURL(ctx context.Context, url string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analysis_requests WHERE url = $1`, url).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count request logs: %w", err)
	}
	return count, nil
}
