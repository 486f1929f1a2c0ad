package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/core/ports/driving"
	"github.com/custodia-labs/policylens/internal/metrics"
)

// Ensure policyService implements PolicyService
var _ driving.PolicyService = (*policyService)(nil)

const (
	// MinHTMLChars is the smallest fetched document worth extracting
	MinHTMLChars = 100
	// MinTextChars is the smallest extracted text worth analyzing
	MinTextChars = 200
	// DefaultBatchConcurrency bounds parallel pipelines in a batch
	DefaultBatchConcurrency = 4
)

// PolicyServiceConfig wires the analyze-policy pipeline
type PolicyServiceConfig struct {
	Fetcher    *Fetcher
	Extractor  driven.TextExtractor
	Classifier driven.PolicyClassifier
	Analyzer   *Analyzer
	Repository *PolicyRepository

	// RequestLog is optional; writes are best-effort
	RequestLog driven.RequestLogStore

	FreshnessWindow  time.Duration
	BatchConcurrency int
	Logger           *slog.Logger

	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// policyService implements the PolicyService interface
type policyService struct {
	fetcher     *Fetcher
	extractor   driven.TextExtractor
	classifier  driven.PolicyClassifier
	analyzer    *Analyzer
	repository  *PolicyRepository
	requestLog  driven.RequestLogStore
	freshness   time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(cfg PolicyServiceConfig) driving.PolicyService {
	s := &policyService{
		fetcher:     cfg.Fetcher,
		extractor:   cfg.Extractor,
		classifier:  cfg.Classifier,
		analyzer:    cfg.Analyzer,
		repository:  cfg.Repository,
		requestLog:  cfg.RequestLog,
		freshness:   cfg.FreshnessWindow,
		concurrency: cfg.BatchConcurrency,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if s.freshness <= 0 {
		s.freshness = domain.DefaultFreshnessWindow
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultBatchConcurrency
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Analyze runs the pipeline: freshness check, fetch, classify, extract, analyze, persist
func (s *policyService) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	start := time.Now()

	resp, err := s.analyze(ctx, req)

	outcome := outcomeOf(err)
	if err == nil && resp.Cached {
		outcome = "cached"
	}
	metrics.RecordPipeline(outcome, time.Since(start))

	if err == nil || !errors.Is(err, domain.ErrValidation) {
		s.logRequest(ctx, req, err == nil && resp.Cached)
	}
	return resp, err
}

func (s *policyService) analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	u, err := domain.ParsePolicyURL(req.URL)
	if err != nil {
		return nil, err
	}
	pageURL := u.String()
	logger := s.logger.With("url", pageURL)

	if !req.ForceFresh {
		existing, err := s.repository.GetByURL(ctx, pageURL)
		switch {
		case err == nil && existing.IsFresh(s.freshness, s.now()) && existing.Analysis.Cacheable():
			logger.Debug("serving fresh stored policy", "policy_id", existing.ID, "last_checked", existing.LastChecked)
			return &domain.AnalyzeResponse{Policy: existing, Cached: true}, nil
		case err == nil && !existing.Analysis.Cacheable():
			logger.Debug("stored policy has no usable analysis, re-analyzing", "policy_id", existing.ID)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			logger.Warn("failed to look up stored policy", "error", err)
		}
	}

	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(page.HTML)) < MinHTMLChars {
		return nil, domain.NewFetchError(pageURL, "fetched document is too small to contain a policy", nil)
	}

	var warnings []string
	classification := s.classifier.Classify(pageURL, page.HTML)
	if !classification.IsPrivacyPolicy {
		logger.Warn("page does not look like a privacy policy")
		warnings = append(warnings, domain.WarningNotPolicy)
	}

	text := s.extractor.Extract(page.HTML)
	if utf8.RuneCountInString(text) < MinTextChars {
		return nil, domain.NewExtractionError(pageURL, "insufficient policy text extracted")
	}
	meta := s.extractor.ExtractMetadata(page.HTML, pageURL)

	data := domain.PolicyData{
		URL:              pageURL,
		Title:            meta.Title,
		Text:             text,
		Company:          meta.Company,
		LastUpdated:      meta.LastUpdated,
		ExtractionMethod: page.Method,
	}

	analysis, err := s.analyzer.Analyze(ctx, data)
	if err != nil {
		return nil, err
	}
	if analysis.Truncated {
		warnings = append(warnings, domain.WarningTruncated)
	}
	if analysis.Result.Placeholder {
		warnings = append(warnings, domain.WarningPlaceholder)
	}
	if analysis.Result.AnalysisFailed {
		warnings = append(warnings, domain.WarningAnalysisFailed)
	}

	saved, err := s.repository.Save(ctx, data, analysis.Result)
	if err != nil {
		return nil, err
	}

	logger.Info("policy analyzed",
		"policy_id", saved.PolicyID,
		"version", saved.Record.Version,
		"is_new", saved.IsNew,
		"method", page.Method,
		"provider", analysis.Result.Provider,
		"analysis_cached", analysis.Cached)

	isNew := saved.IsNew
	return &domain.AnalyzeResponse{
		Policy:   saved.Record,
		Cached:   false,
		IsNew:    &isNew,
		Warnings: warnings,
	}, nil
}

// AnalyzeBatch runs one independent pipeline per request with bounded concurrency
func (s *policyService) AnalyzeBatch(ctx context.Context, reqs []domain.AnalyzeRequest) []domain.BatchResult {
	results := make([]domain.BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i].URL = req.URL
			resp, err := s.Analyze(ctx, req)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Response = resp
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Get retrieves a policy record by ID
func (s *policyService) Get(ctx context.Context, id string) (*domain.PolicyRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("", "policy id is required")
	}
	return s.repository.Get(ctx, id)
}

// GetByURL retrieves the latest policy record for a URL
func (s *policyService) GetByURL(ctx context.Context, rawURL string) (*domain.PolicyRecord, error) {
	u, err := domain.ParsePolicyURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.repository.GetByURL(ctx, u.String())
}

// GetHistory retrieves every version for the URL owning id, newest first
func (s *policyService) GetHistory(ctx context.Context, id string) ([]*domain.PolicyHistoryEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("", "policy id is required")
	}
	return s.repository.GetHistory(ctx, id)
}

// Classify reports whether a page looks like a privacy policy, fetching it when asked
func (s *policyService) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
	u, err := domain.ParsePolicyURL(req.URL)
	if err != nil {
		return nil, err
	}
	pageURL := u.String()

	html := req.HTML
	if html == "" && req.Fetch {
		page, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		html = page.HTML
	}

	c := s.classifier.Classify(pageURL, html)
	return &c, nil
}

func (s *policyService) logRequest(ctx context.Context, req domain.AnalyzeRequest, cached bool) {
	if s.requestLog == nil {
		return
	}
	entry := &domain.AnalysisRequestLog{
		ID:        uuid.NewString(),
		URL:       strings.TrimSpace(req.URL),
		UserID:    req.UserID,
		Cached:    cached,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
		CreatedAt: s.now().UTC(),
	}
	if err := s.requestLog.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append request log", "url", entry.URL, "error", err)
	}
}

// outcomeOf names a pipeline result for metrics
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "fresh"
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrFetch):
		return "fetch_error"
	case errors.Is(err, domain.ErrExtraction):
		return "extraction_error"
	case errors.Is(err, domain.ErrProvider):
		return "provider_error"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_error"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration_error"
	default:
		return "error"
	}
}
