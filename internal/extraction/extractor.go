package extraction

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*Extractor)(nil)

// Scoring thresholds
const (
	DefaultMinWords          = 50
	DefaultHighConfidence    = 1000.0
	DefaultMediumConfidence  = 500.0
	DefaultMinParagraphChars = 20
	DefaultMinFallbackChars  = 500
)

// strippedTags never carry policy text
const strippedTags = "script, style, noscript, template, nav, header, footer, iframe, frame, frameset, object, embed, svg"

// candidateSelectors are evaluated in order: policy containers, content containers, layout containers.
var candidateSelectors = [][]string{
	{
		`[class*="privacy-policy"]`, `[id*="privacy-policy"]`,
		`[class*="privacy"]`, `[id*="privacy"]`,
		`[class*="policy"]`, `[id*="policy"]`,
		`[class*="legal"]`, `[id*="legal"]`,
	},
	{
		"article", "main", `[role="main"]`,
		".content", "#content", ".main-content", ".page-content",
		".post-content", ".entry-content", ".article-body",
	},
	{
		".container", ".wrapper", "#main", "section", "div",
	},
}

// privacyVocabulary boosts candidates that read like a policy
var privacyVocabulary = []string{
	"privacy", "personal data", "personal information", "data protection",
	"cookie", "third part", "consent", "gdpr", "ccpa", "retention",
	"opt out", "opt-out", "your rights", "collect", "processing",
	"controller", "disclose", "share", "security", "children",
}

var (
	reHorizontalSpace = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	reNewlines        = regexp.MustCompile(`\s*\n\s*`)
)

// Config holds extractor thresholds
type Config struct {
	MinWords          int
	HighConfidence    float64
	MediumConfidence  float64
	MinParagraphChars int
	MinFallbackChars  int
	Logger            *slog.Logger
}

// Extractor selects the policy region of a page and derives its metadata
type Extractor struct {
	minWords          int
	highConfidence    float64
	mediumConfidence  float64
	minParagraphChars int
	minFallbackChars  int
	logger            *slog.Logger
}

// New creates an Extractor. Zero config values take the defaults.
func New(cfg Config) *Extractor {
	e := &Extractor{
		minWords:          cfg.MinWords,
		highConfidence:    cfg.HighConfidence,
		mediumConfidence:  cfg.MediumConfidence,
		minParagraphChars: cfg.MinParagraphChars,
		minFallbackChars:  cfg.MinFallbackChars,
		logger:            cfg.Logger,
	}
	if e.minWords <= 0 {
		e.minWords = DefaultMinWords
	}
	if e.highConfidence <= 0 {
		e.highConfidence = DefaultHighConfidence
	}
	if e.mediumConfidence <= 0 {
		e.mediumConfidence = DefaultMediumConfidence
	}
	if e.minParagraphChars <= 0 {
		e.minParagraphChars = DefaultMinParagraphChars
	}
	if e.minFallbackChars <= 0 {
		e.minFallbackChars = DefaultMinFallbackChars
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Tier names the extraction stage that produced the text
type Tier string

const (
	TierCandidate  Tier = "candidate"
	TierParagraphs Tier = "paragraphs"
	TierBody       Tier = "body"
)

// Result is the text chosen for a page and how it was found
type Result struct {
	Text  string
	Tier  Tier
	Score float64
}

// Extract returns the normalized policy text of a page
func (e *Extractor) Extract(rawHTML string) string {
	return e.ExtractDetailed(rawHTML).Text
}

// ExtractDetailed returns the policy text with the tier and candidate score.
// Each fallback tier only replaces earlier text when it is at least as long.
func (e *Extractor) ExtractDetailed(rawHTML string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		e.logger.Debug("html parse failed", "error", err)
		return Result{Tier: TierBody}
	}
	doc.Find(strippedTags).Remove()

	best, score := e.bestCandidate(doc)
	result := Result{Text: best, Tier: TierCandidate, Score: score}
	if score >= e.mediumConfidence {
		return result
	}

	paragraphs := e.paragraphText(doc)
	if utf8.RuneCountInString(paragraphs) >= utf8.RuneCountInString(result.Text) {
		result.Text = paragraphs
		result.Tier = TierParagraphs
	}
	if utf8.RuneCountInString(paragraphs) >= e.minFallbackChars {
		return result
	}

	body := normalize(nodeText(doc.Find("body")))
	if body == "" {
		body = normalize(nodeText(doc.Selection))
	}
	if utf8.RuneCountInString(body) >= utf8.RuneCountInString(result.Text) {
		result.Text = body
		result.Tier = TierBody
	}
	return result
}

func (e *Extractor) bestCandidate(doc *goquery.Document) (string, float64) {
	var bestText string
	var bestScore float64

	for _, tier := range candidateSelectors {
		for _, selector := range tier {
			stop := false
			doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				text := normalize(nodeText(s))
				words := len(strings.Fields(text))
				if words < e.minWords {
					return true
				}
				score := Score(text, words)
				if score > bestScore {
					bestScore = score
					bestText = text
				}
				if bestScore > e.highConfidence {
					stop = true
					return false
				}
				return true
			})
			if stop {
				return bestText, bestScore
			}
		}
	}
	return bestText, bestScore
}

func (e *Extractor) paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := normalize(nodeText(s))
		if utf8.RuneCountInString(text) > e.minParagraphChars {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

// Score rates a candidate: words * (1 + 2 * fraction of the privacy vocabulary present).
func Score(text string, words int) float64 {
	lower := strings.ToLower(text)
	found := 0
	for _, term := range privacyVocabulary {
		if strings.Contains(lower, term) {
			found++
		}
	}
	fraction := float64(found) / float64(len(privacyVocabulary))
	return float64(words) * (1 + 2*fraction)
}

// blockElements end a line in extracted text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "th": true, "table": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "dd": true, "dt": true, "main": true,
}

// nodeText renders the text of a selection with newlines between block elements
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

// normalize collapses whitespace runs to one space and newline runs to one newline
func normalize(text string) string {
	text = reHorizontalSpace.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
