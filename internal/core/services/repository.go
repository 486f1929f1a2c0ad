package services

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// DefaultMaxRawTextChars caps the policy text kept on a stored record
const DefaultMaxRawTextChars = 100000

// RepositoryConfig configures the PolicyRepository
type RepositoryConfig struct {
	Store           driven.PolicyStore
	MaxRawTextChars int
	Logger          *slog.Logger

	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// PolicyRepository applies the versioning rules on top of a PolicyStore.
// It is the only writer of policy records.
type PolicyRepository struct {
	store    driven.PolicyStore
	maxChars int
	logger   *slog.Logger
	now      func() time.Time
}

// NewPolicyRepository creates a PolicyRepository
func NewPolicyRepository(cfg RepositoryConfig) *PolicyRepository {
	r := &PolicyRepository{
		store:    cfg.Store,
		maxChars: cfg.MaxRawTextChars,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if r.maxChars <= 0 {
		r.maxChars = DefaultMaxRawTextChars
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// GetByURL returns the latest version for url or domain.ErrNotFound
func (r *PolicyRepository) GetByURL(ctx context.Context, url string) (*domain.PolicyRecord, error) {
	return r.store.GetByURL(ctx, url)
}

// Get returns a record by id or domain.ErrNotFound
func (r *PolicyRepository) Get(ctx context.Context, id string) (*domain.PolicyRecord, error) {
	return r.store.Get(ctx, id)
}

// Save persists an analysis.
// A new URL inserts version 1. Unchanged text only bumps lastChecked.
// Changed text inserts a new version and snapshots the prior one in the same transaction.
// The comparison against the latest version happens inside the store under a
// per-URL lock, so concurrent saves of one URL never fork the version chain.
func (r *PolicyRepository) Save(ctx context.Context, data domain.PolicyData, analysis domain.AnalysisResult) (*domain.SaveResult, error) {
	u, err := domain.ParsePolicyURL(data.URL)
	if err != nil {
		return nil, err
	}

	rawText := capText(data.Text, r.maxChars)
	now := r.now().UTC()

	analysis.Normalize()
	record := &domain.PolicyRecord{
		ID:               uuid.NewString(),
		URL:              data.URL,
		Domain:           domain.DomainOf(u),
		Version:          1,
		Title:            data.Title,
		Company:          data.Company,
		LastUpdated:      data.LastUpdated,
		RawText:          rawText,
		ContentHash:      domain.ContentHash(rawText),
		ExtractionMethod: data.ExtractionMethod,
		Analysis:         analysis,
		CreatedAt:        now,
		LastChecked:      now,
	}

	saved, err := r.store.SaveVersion(ctx, record)
	if err != nil {
		return nil, domain.NewPersistenceError(data.URL, "failed to store policy", err)
	}

	switch {
	case !saved.IsNew:
		r.logger.Debug("policy unchanged", "url", data.URL, "policy_id", saved.PolicyID, "version", saved.Record.Version)
	case saved.Record.Version > 1:
		r.logger.Info("policy content changed, stored new version",
			"url", data.URL, "policy_id", saved.PolicyID, "version", saved.Record.Version)
	}
	return saved, nil
}

// GetHistory resolves the URL owning id and returns every version for it, newest first
func (r *PolicyRepository) GetHistory(ctx context.Context, id string) ([]*domain.PolicyHistoryEntry, error) {
	record, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	versions, err := r.store.ListVersions(ctx, record.URL)
	if err != nil {
		return nil, err
	}
	snapshots, err := r.store.ListHistory(ctx, record.URL)
	if err != nil {
		return nil, err
	}
	byPolicy := make(map[string]*domain.PolicyHistoryEntry, len(snapshots))
	for _, s := range snapshots {
		byPolicy[s.PolicyID] = s
	}

	entries := make([]*domain.PolicyHistoryEntry, 0, len(versions))
	for _, v := range versions {
		entry := &domain.PolicyHistoryEntry{
			ID:              v.ID,
			PolicyID:        v.ID,
			Version:         v.Version,
			SnapshotDate:    v.LastChecked,
			RawText:         v.RawText,
			Summary:         v.Analysis.Summary,
			Score:           v.Analysis.Score,
			ChangesDetected: v.Version > 1,
		}
		if s, ok := byPolicy[v.ID]; ok {
			entry.ID = s.ID
			entry.SupersededBy = s.SupersededBy
			entry.SnapshotDate = s.SnapshotDate
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func capText(text string, maxChars int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars])
}
