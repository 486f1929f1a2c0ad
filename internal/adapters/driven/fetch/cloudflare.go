package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/theopenlane/httpsling"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FetchStrategy = (*CloudflareStrategy)(nil)

const (
	// defaultCloudflareBaseURL is the root endpoint for the Cloudflare API
	defaultCloudflareBaseURL = "https://api.cloudflare.com/client/v4"
	// contentPath is the browser rendering endpoint returning the rendered HTML
	contentPath = "browser-rendering/content"
)

var (
	// ErrMissingAccountID is returned when the Cloudflare account ID is not configured
	ErrMissingAccountID = errors.New("cloudflare account ID is required")
	// ErrMissingAPIToken is returned when the Cloudflare API token is not configured
	ErrMissingAPIToken = errors.New("cloudflare API token is required")
	// ErrRenderingFailed is returned when the rendering result indicates failure
	ErrRenderingFailed = errors.New("cloudflare browser rendering failed")
)

// CloudflareConfig configures the remote rendering strategy
type CloudflareConfig struct {
	AccountID  string
	APIToken   string
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// CloudflareStrategy renders pages with Cloudflare Browser Rendering instead of a local browser
type CloudflareStrategy struct {
	accountID  string
	apiToken   string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

type contentRequest struct {
	URL                 string       `json:"url"`
	UserAgent           string       `json:"userAgent,omitempty"`
	GotoOptions         *gotoOptions `json:"gotoOptions,omitempty"`
	RejectResourceTypes []string     `json:"rejectResourceTypes,omitempty"`
}

type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	Timeout   int    `json:"timeout"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type contentResponse struct {
	Success bool         `json:"success"`
	Result  string       `json:"result"`
	Errors  []apiMessage `json:"errors"`
}

// NewCloudflareStrategy creates a CloudflareStrategy
func NewCloudflareStrategy(cfg CloudflareConfig) (*CloudflareStrategy, error) {
	if cfg.AccountID == "" {
		return nil, ErrMissingAccountID
	}
	if cfg.APIToken == "" {
		return nil, ErrMissingAPIToken
	}

	s := &CloudflareStrategy{
		accountID:  cfg.AccountID,
		apiToken:   cfg.APIToken,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if s.baseURL == "" {
		s.baseURL = defaultCloudflareBaseURL
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.httpClient == nil {
		// Rendering waits for network idle on the remote side, so allow well past the navigation timeout
		s.httpClient = &http.Client{Timeout: 2 * domain.DefaultNavigationTimeout}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Method identifies the strategy
func (s *CloudflareStrategy) Method() domain.FetchMethod {
	return domain.FetchMethodCloudflare
}

// Fetch asks Cloudflare to render the page and returns the resulting HTML
func (s *CloudflareStrategy) Fetch(ctx context.Context, url string) (*domain.FetchResult, error) {
	body := contentRequest{
		URL:       url,
		UserAgent: s.userAgent,
		GotoOptions: &gotoOptions{
			WaitUntil: "networkidle2",
			Timeout:   int(domain.DefaultNavigationTimeout.Milliseconds()),
		},
		RejectResourceTypes: []string{"image", "media", "font"},
	}

	requester := httpsling.MustNew(
		httpsling.URL(fmt.Sprintf("%s/accounts/%s/%s", s.baseURL, s.accountID, contentPath)),
		httpsling.Post(),
		httpsling.BearerAuth(s.apiToken),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(s.httpClient),
	)

	var cfResp contentResponse

	resp, err := requester.ReceiveWithContext(ctx, &cfResp)
	if err != nil {
		return nil, domain.NewFetchError(url, "cloudflare rendering request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.NewFetchError(url, "cloudflare rendering rate limited", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewFetchError(url, fmt.Sprintf("cloudflare rendering returned status %d", resp.StatusCode), nil)
	}
	if !cfResp.Success {
		return nil, domain.NewFetchError(url, renderingFailure(cfResp.Errors), ErrRenderingFailed)
	}
	if blockErr := DetectBlock(0, cfResp.Result); blockErr != nil {
		return nil, domain.NewFetchError(url, "blocked by anti-bot protection", blockErr)
	}
	if cfResp.Result == "" {
		return nil, domain.NewFetchError(url, "cloudflare returned an empty document", nil)
	}

	s.logger.Debug("rendered page with cloudflare", "url", url, "bytes", len(cfResp.Result))
	return &domain.FetchResult{
		URL:        url,
		HTML:       cfResp.Result,
		Method:     domain.FetchMethodCloudflare,
		StatusCode: resp.StatusCode,
	}, nil
}

func renderingFailure(errs []apiMessage) string {
	if len(errs) == 0 {
		return "cloudflare rendering failed"
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return "cloudflare rendering failed: " + strings.Join(msgs, "; ")
}
