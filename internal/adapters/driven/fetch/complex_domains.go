package fetch

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ComplexDomainRegistry = (*ComplexDomains)(nil)

// DefaultComplexDomains render their policies client-side or challenge plain HTTP clients
var DefaultComplexDomains = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"tiktok.com",
	"snapchat.com",
	"pinterest.com",
	"reddit.com",
	"discord.com",
	"amazon.com",
	"netflix.com",
	"spotify.com",
	"uber.com",
	"airbnb.com",
}

// ComplexDomains is a static registry of hosts that need full browser rendering
type ComplexDomains struct {
	domains map[string]struct{}
}

// NewComplexDomains creates a registry from the defaults plus extra domains
func NewComplexDomains(extra ...string) *ComplexDomains {
	r := &ComplexDomains{domains: make(map[string]struct{})}
	for _, d := range append(append([]string{}, DefaultComplexDomains...), extra...) {
		d = normalizeHost(d)
		if d != "" {
			r.domains[d] = struct{}{}
		}
	}
	return r
}

// IsComplex returns true if host equals a registered domain or is one of its subdomains
func (r *ComplexDomains) IsComplex(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for {
		if _, ok := r.domains[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

// Domains returns the registered domains in sorted order
func (r *ComplexDomains) Domains() []string {
	domains := lo.Keys(r.domains)
	sort.Strings(domains)
	return domains
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
