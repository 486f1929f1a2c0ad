package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocolly/colly"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FetchStrategy = (*HTTPStrategy)(nil)

// HTTPConfig configures the lightweight fetch strategy
type HTTPConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	Logger       *slog.Logger
}

// HTTPStrategy fetches pages with a single GET and browser-like headers
type HTTPStrategy struct {
	userAgent    string
	timeout      time.Duration
	maxRedirects int
	transport    http.RoundTripper
	logger       *slog.Logger
}

// NewHTTPStrategy creates an HTTPStrategy. Zero config values take the defaults.
func NewHTTPStrategy(cfg HTTPConfig) *HTTPStrategy {
	s := &HTTPStrategy{
		userAgent:    cfg.UserAgent,
		timeout:      cfg.Timeout,
		maxRedirects: cfg.MaxRedirects,
		logger:       cfg.Logger,
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.timeout <= 0 {
		s.timeout = domain.DefaultHTTPTimeout
	}
	if s.maxRedirects <= 0 {
		s.maxRedirects = domain.DefaultMaxRedirects
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Method identifies the strategy
func (s *HTTPStrategy) Method() domain.FetchMethod {
	return domain.FetchMethodHTTP
}

// Fetch performs the GET. Non-2xx statuses, block pages and empty bodies are FetchErrors.
func (s *HTTPStrategy) Fetch(ctx context.Context, url string) (*domain.FetchResult, error) {
	c := s.collector()

	var (
		status int
		body   []byte
		final  string
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
		final = r.Request.URL.String()
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(url)
	}()

	var err error
	select {
	case <-ctx.Done():
		return nil, domain.NewFetchError(url, "fetch cancelled", ctx.Err())
	case err = <-done:
	}

	if err != nil {
		return nil, domain.NewFetchError(url, "http request failed", err)
	}
	if blockErr := DetectBlock(status, string(body)); blockErr != nil {
		return nil, domain.NewFetchError(url, "blocked by anti-bot protection", blockErr)
	}
	if status < 200 || status >= 300 {
		return nil, domain.NewFetchError(url, fmt.Sprintf("unexpected status %d", status), nil)
	}
	if len(body) == 0 {
		return nil, domain.NewFetchError(url, "empty response body", nil)
	}

	s.logger.Debug("fetched page over http", "url", url, "final_url", final, "status", status, "bytes", len(body))
	return &domain.FetchResult{
		URL:        url,
		HTML:       string(body),
		Method:     domain.FetchMethodHTTP,
		StatusCode: status,
	}, nil
}

// collector builds a single-use collector; callbacks capture per-fetch state.
func (s *HTTPStrategy) collector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
	)
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(s.timeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}

	maxRedirects := s.maxRedirects
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	})

	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})
	return c
}
