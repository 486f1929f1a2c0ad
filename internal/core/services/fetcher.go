package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/metrics"
)

// FetcherConfig wires the fetch strategies.
// Heavy may be nil, in which case no fallback hop exists.
type FetcherConfig struct {
	HTTP    driven.FetchStrategy
	Heavy   driven.FetchStrategy
	Domains driven.ComplexDomainRegistry
	Cache   driven.Cache
	TTL     time.Duration
	Logger  *slog.Logger
}

// Fetcher retrieves policy HTML: cache first, then the lightweight strategy
// with at most one fallback hop to the heavy renderer.
type Fetcher struct {
	http    driven.FetchStrategy
	heavy   driven.FetchStrategy
	domains driven.ComplexDomainRegistry
	cache   driven.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// cachedPage is the value stored in the html namespace
type cachedPage struct {
	HTML   string             `json:"html"`
	Method domain.FetchMethod `json:"method"`
}

// NewFetcher creates a Fetcher
func NewFetcher(cfg FetcherConfig) *Fetcher {
	f := &Fetcher{
		http:    cfg.HTTP,
		heavy:   cfg.Heavy,
		domains: cfg.Domains,
		cache:   cfg.Cache,
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
	}
	if f.ttl <= 0 {
		f.ttl = domain.DefaultHTMLCacheTTL
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch returns the page HTML for rawURL or a FetchError
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	u, err := domain.ParsePolicyURL(rawURL)
	if err != nil {
		return nil, err
	}
	pageURL := u.String()
	key := domain.CacheKey(domain.CacheNamespaceHTML, pageURL)

	if cached := f.fromCache(ctx, key, pageURL); cached != nil {
		return cached, nil
	}

	result, err := f.fetchLive(ctx, pageURL, u.Hostname())
	if err != nil {
		return nil, err
	}

	f.store(ctx, key, result)
	return result, nil
}

func (f *Fetcher) fetchLive(ctx context.Context, pageURL, host string) (*domain.FetchResult, error) {
	if f.http == nil && f.heavy == nil {
		return nil, domain.NewConfigurationError(pageURL, "no fetch strategy configured")
	}

	if f.heavy != nil && (f.http == nil || (f.domains != nil && f.domains.IsComplex(host))) {
		f.logger.Debug("using heavy renderer directly", "url", pageURL, "method", f.heavy.Method())
		return f.attempt(ctx, f.heavy, pageURL)
	}

	result, err := f.attempt(ctx, f.http, pageURL)
	if err == nil {
		return result, nil
	}
	if f.heavy == nil || ctx.Err() != nil {
		return nil, err
	}

	f.logger.Warn("lightweight fetch failed, falling back to heavy renderer",
		"url", pageURL, "method", f.heavy.Method(), "error", err)

	result, heavyErr := f.attempt(ctx, f.heavy, pageURL)
	if heavyErr != nil {
		return nil, domain.NewFetchError(pageURL, "all fetch strategies failed", errors.Join(err, heavyErr))
	}
	return result, nil
}

func (f *Fetcher) attempt(ctx context.Context, strategy driven.FetchStrategy, pageURL string) (*domain.FetchResult, error) {
	start := time.Now()
	result, err := strategy.Fetch(ctx, pageURL)
	if err == nil && (result == nil || result.HTML == "") {
		err = domain.NewFetchError(pageURL, "empty document", nil)
	}
	metrics.RecordFetch(string(strategy.Method()), err, time.Since(start))

	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = domain.NewFetchError(pageURL, "fetch failed", err)
		}
		return nil, err
	}
	if result.Method == "" {
		result.Method = strategy.Method()
	}
	result.URL = pageURL
	return result, nil
}

func (f *Fetcher) fromCache(ctx context.Context, key, pageURL string) *domain.FetchResult {
	if f.cache == nil {
		return nil
	}
	data, err := f.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	var page cachedPage
	if err := json.Unmarshal(data, &page); err != nil || page.HTML == "" {
		f.logger.Debug("ignoring unreadable cached page", "url", pageURL, "error", err)
		return nil
	}
	return &domain.FetchResult{
		URL:       pageURL,
		HTML:      page.HTML,
		Method:    page.Method,
		FromCache: true,
	}
}

func (f *Fetcher) store(ctx context.Context, key string, result *domain.FetchResult) {
	if f.cache == nil {
		return
	}
	data, err := json.Marshal(cachedPage{HTML: result.HTML, Method: result.Method})
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
		f.logger.Debug("failed to cache page", "url", result.URL, "error", err)
	}
}
