package extraction

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/publicsuffix"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

const datePattern = `([A-Za-z]{3,9}\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}|\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]{3,9}\.?,?\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}[/.]\d{1,2}[/.]\d{2,4})`

// lastUpdatedPatterns are tried in order; the first parseable match wins
var lastUpdatedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)last\s+(?:updated|modified|revised)(?:\s+on)?\s*[:\-]?\s*` + datePattern),
	regexp.MustCompile(`(?i)effective\s+(?:date|as\s+of|from)\s*[:\-]?\s*` + datePattern),
	regexp.MustCompile(`(?i)(?:updated|revised)\s*[:\-]\s*` + datePattern),
}

var (
	reOrdinal     = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)
	reNumericDate = regexp.MustCompile(`^\d{1,2}[/.]\d{1,2}[/.]\d{2,4}$`)
)

// companySubdomains are dropped before deriving a company from the host
var companySubdomains = []string{"www", "privacy", "legal", "help", "support", "policies", "policy"}

var siteNameSelectors = []string{
	`meta[property="og:site_name"]`,
	`meta[name="application-name"]`,
	`meta[name="apple-mobile-web-app-title"]`,
}

// ExtractMetadata returns the best-effort title, company and last-updated date of a page
func (e *Extractor) ExtractMetadata(rawHTML, pageURL string) domain.PolicyMetadata {
	var meta domain.PolicyMetadata

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		meta.Company = CompanyFromURL(pageURL)
		return meta
	}

	meta.Title = title(doc)
	meta.LastUpdated = LastUpdated(normalize(nodeText(doc.Find("body"))))
	meta.Company = siteName(doc)
	if meta.Company == "" {
		meta.Company = readabilitySiteName(rawHTML, pageURL)
	}
	if meta.Company == "" {
		meta.Company = CompanyFromURL(pageURL)
	}
	if meta.Title == "" {
		meta.Title = meta.Company
	}

	return meta
}

// title prefers a heading mentioning privacy or policy, then the title tag
func title(doc *goquery.Document) string {
	var heading string
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalize(s.Text())
		lower := strings.ToLower(text)
		if strings.Contains(lower, "privacy") || strings.Contains(lower, "policy") {
			heading = text
			return false
		}
		return true
	})
	if heading != "" {
		return heading
	}
	return normalize(doc.Find("title").First().Text())
}

func siteName(doc *goquery.Document) string {
	for _, selector := range siteNameSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if name := strings.TrimSpace(content); name != "" {
				return name
			}
		}
	}
	return ""
}

func readabilitySiteName(rawHTML, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.SiteName)
}

// LastUpdated finds a "last updated" or "effective date" phrase and parses its date
func LastUpdated(text string) *time.Time {
	for _, pattern := range lastUpdatedPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, 3) {
			raw := strings.TrimSuffix(match[1], ",")
			if reNumericDate.MatchString(raw) {
				raw = strings.ReplaceAll(raw, ".", "/")
			} else {
				raw = strings.ReplaceAll(reOrdinal.ReplaceAllString(raw, "$1"), ".", "")
			}
			t, err := dateparse.ParseIn(strings.Join(strings.Fields(raw), " "), time.UTC)
			if err != nil {
				continue
			}
			return &t
		}
	}
	return nil
}

// CompanyFromURL derives a display name from the registrable domain of a URL
func CompanyFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for {
		trimmed := host
		for _, sub := range companySubdomains {
			trimmed = strings.TrimPrefix(trimmed, sub+".")
		}
		if trimmed == host {
			break
		}
		host = trimmed
	}

	name := host
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		suffix, _ := publicsuffix.PublicSuffix(host)
		name = strings.TrimSuffix(etld1, "."+suffix)
	} else if i := strings.Index(host, "."); i > 0 {
		name = host[:i]
	}
	return capitalize(name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
