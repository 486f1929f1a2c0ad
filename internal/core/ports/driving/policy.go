package driving

import (
	"context"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// PolicyService runs the analyze-policy pipeline and serves stored analyses
type PolicyService interface {
	// Analyze validates, fetches, extracts, analyzes and persists one policy URL.
	// A fresh stored record short-circuits the pipeline unless ForceFresh is set.
	Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error)

	// AnalyzeBatch runs independent pipelines for several URLs in parallel.
	// Per-URL failures are reported in the results, never as a batch error.
	AnalyzeBatch(ctx context.Context, reqs []domain.AnalyzeRequest) []domain.BatchResult

	// Get retrieves a policy record by ID
	Get(ctx context.Context, id string) (*domain.PolicyRecord, error)

	// GetByURL retrieves the latest policy record for a URL
	GetByURL(ctx context.Context, url string) (*domain.PolicyRecord, error)

	// GetHistory retrieves every version for the URL owning the given record, newest first
	GetHistory(ctx context.Context, id string) ([]*domain.PolicyHistoryEntry, error)

	// Classify reports whether a page looks like a privacy policy
	Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error)
}
