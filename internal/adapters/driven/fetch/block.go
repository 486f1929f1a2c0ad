package fetch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// DefaultUserAgent is a current desktop Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// browserHeaders are sent with every plain HTTP fetch to look like a real browser
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

// blockStatuses are answered by anti-bot layers instead of the page
var blockStatuses = map[int]bool{
	http.StatusForbidden:          true,
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

// challengeMarkers identify interstitial challenge pages
var challengeMarkers = []string{
	"<title>just a moment...</title>",
	"cf-browser-verification",
	"cf_chl_opt",
	"attention required! | cloudflare",
	"captcha-delivery.com",
	"px-captcha",
	"_incapsula_resource",
	"verify you are human",
	"please enable js and disable any ad blocker",
}

// maxChallengeBodySize bounds the body scanned for challenge markers; challenge pages are small
const maxChallengeBodySize = 64 * 1024

// DetectBlock returns an error wrapping domain.ErrBlocked when a response looks like an anti-bot block.
// status 0 skips the status check.
func DetectBlock(status int, body string) error {
	if blockStatuses[status] {
		return fmt.Errorf("%w: status %d", domain.ErrBlocked, status)
	}
	if len(body) > maxChallengeBodySize {
		return nil
	}
	lower := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: challenge page (%s)", domain.ErrBlocked, marker)
		}
	}
	return nil
}
