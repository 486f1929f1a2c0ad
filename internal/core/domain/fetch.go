package domain

import "time"

// FetchMethod identifies which strategy produced a page's HTML
type FetchMethod string

const (
	FetchMethodHTTP       FetchMethod = "http"
	FetchMethodBrowser    FetchMethod = "browser"
	FetchMethodCloudflare FetchMethod = "cloudflare"
)

// Fetch defaults
const (
	DefaultHTTPTimeout       = 15 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultMaxRedirects      = 5
	DefaultHTMLCacheTTL      = 24 * time.Hour
)

// FetchResult is the raw HTML of a page plus the strategy that produced it
type FetchResult struct {
	URL        string      `json:"url"`
	HTML       string      `json:"html"`
	Method     FetchMethod `json:"method"`
	StatusCode int         `json:"statusCode,omitempty"`
	FromCache  bool        `json:"-"`
}
