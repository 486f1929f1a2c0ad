package driven

import (
	"context"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// PolicyStore persists versioned policy analyses
type PolicyStore interface {
	// GetByURL retrieves the latest version for a URL
	GetByURL(ctx context.Context, url string) (*domain.PolicyRecord, error)

	// Get retrieves a policy record by ID
	Get(ctx context.Context, id string) (*domain.PolicyRecord, error)

	// SaveVersion stores record as the next version for its URL.
	// Writers for one URL are serialized and the latest version is read under
	// that lock. When its content hash equals record.ContentHash only its
	// last_checked moves to record.LastChecked and it is returned with IsNew false.
	// A stored failed or placeholder analysis is replaced by record's analysis then.
	// Otherwise record becomes latest+1, keeps the first CreatedAt, and the
	// prior latest gets a history snapshot in the same transaction.
	SaveVersion(ctx context.Context, record *domain.PolicyRecord) (*domain.SaveResult, error)

	// ListVersions retrieves every version for a URL, newest first
	ListVersions(ctx context.Context, url string) ([]*domain.PolicyRecord, error)

	// ListHistory retrieves the superseded snapshots for a URL, newest first
	ListHistory(ctx context.Context, url string) ([]*domain.PolicyHistoryEntry, error)
}

// RequestLogStore appends analyze request analytics
type RequestLogStore interface {
	// Append stores one request log entry
	Append(ctx context.Context, entry *domain.AnalysisRequestLog) error

	// CountByURL returns how many requests were logged for a URL
	CountByURL(ctx context.Context, url string) (int64, error)
}
