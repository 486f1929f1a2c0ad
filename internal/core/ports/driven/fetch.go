package driven

import (
	"context"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// FetchStrategy retrieves the raw HTML of a page one way.
// Implementations: plain HTTP, headless browser, remote rendering service.
type FetchStrategy interface {
	// Fetch retrieves the page. A block page or challenge response is an error.
	Fetch(ctx context.Context, url string) (*domain.FetchResult, error)

	// Method identifies the strategy in fetch results and cache entries
	Method() domain.FetchMethod
}

// ComplexDomainRegistry decides which hosts skip plain HTTP and go straight to rendering
type ComplexDomainRegistry interface {
	// IsComplex returns true if host equals or is a subdomain of a registered domain
	IsComplex(host string) bool

	// Domains returns the registered domains
	Domains() []string
}
