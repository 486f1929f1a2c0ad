// Package classifier decides heuristically whether a page is a privacy policy.
// Verdicts are advisory; callers annotate results rather than reject them.
package classifier

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PolicyClassifier = (*Classifier)(nil)

// urlKeywords mark a policy URL in several languages
var urlKeywords = []string{
	"privacy", "privacy-policy", "privacypolicy", "privacy_policy",
	"data-policy", "datapolicy", "data-protection", "gdpr",
	"datenschutz", "confidentialite", "confidentialité", "privacidad",
	"privacidade", "privacita", "riservatezza", "privacybeleid",
	"integritetspolicy", "personvern", "prywatnosci", "gizlilik",
}

// titleKeywords mark a policy in the title tag or a top-level heading
var titleKeywords = []string{
	"privacy", "policy", "data", "personal information", "cookie", "gdpr",
}

// contentPhrases are typical of policy body text
var contentPhrases = []string{
	"we collect", "personal data", "personal information", "your rights",
	"opt out", "opt-out", "third parties", "data protection",
	"controller", "processor", "legal basis", "retention period",
	"data subject", "we share", "lawful basis", "cookies",
}

// Classifier is a URL, title and phrase heuristic
type Classifier struct {
	minPhrases int
}

// New creates a Classifier requiring domain.MinPolicyPhrases distinct phrases
func New() *Classifier {
	return &Classifier{minPhrases: domain.MinPolicyPhrases}
}

// IsPrivacyPolicy returns true if the URL or, when supplied, the HTML looks like a privacy policy
func (c *Classifier) IsPrivacyPolicy(pageURL, html string) bool {
	return c.Classify(pageURL, html).IsPrivacyPolicy
}

// Classify returns the verdict with the signal that decided it.
// URL evidence is authoritative; content is only inspected when the URL does not match.
func (c *Classifier) Classify(pageURL, html string) domain.Classification {
	result := domain.Classification{URL: pageURL, Signal: domain.SignalNone}

	if MatchesURL(pageURL) {
		result.IsPrivacyPolicy = true
		result.Signal = domain.SignalURL
		return result
	}
	if strings.TrimSpace(html) == "" {
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result
	}

	if matchesTitle(doc) {
		result.IsPrivacyPolicy = true
		result.Signal = domain.SignalTitle
		return result
	}

	doc.Find("script, style, noscript").Remove()
	result.MatchedPhrases = matchedPhrases(strings.ToLower(doc.Find("body").Text()))
	if len(result.MatchedPhrases) >= c.minPhrases {
		result.IsPrivacyPolicy = true
		result.Signal = domain.SignalContent
	}
	return result
}

// MatchesURL reports whether the URL contains a policy keyword, case-insensitively
func MatchesURL(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	for _, keyword := range urlKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func matchesTitle(doc *goquery.Document) bool {
	texts := []string{doc.Find("title").First().Text()}
	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})

	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, keyword := range titleKeywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}

func matchedPhrases(body string) []string {
	var found []string
	for _, phrase := range contentPhrases {
		if strings.Contains(body, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}
