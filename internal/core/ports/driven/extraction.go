package driven

import (
	"github.com/custodia-labs/policylens/internal/core/domain"
)

// TextExtractor turns policy page HTML into clean text and metadata
type TextExtractor interface {
	// Extract returns the main policy text. Never fails; empty text is possible.
	Extract(html string) string

	// ExtractMetadata returns best-effort title, company and last-updated date
	ExtractMetadata(html, pageURL string) domain.PolicyMetadata
}

// PolicyClassifier decides whether a page looks like a privacy policy
type PolicyClassifier interface {
	// IsPrivacyPolicy returns the verdict only. html may be empty.
	IsPrivacyPolicy(pageURL, html string) bool

	// Classify returns the verdict with the evidence that decided it
	Classify(pageURL, html string) domain.Classification
}
