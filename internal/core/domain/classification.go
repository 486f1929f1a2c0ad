package domain

// ClassificationSignal names the evidence that decided a classification
type ClassificationSignal string

const (
	SignalURL     ClassificationSignal = "url"
	SignalTitle   ClassificationSignal = "title"
	SignalContent ClassificationSignal = "content"
	SignalNone    ClassificationSignal = "none"
)

// MinPolicyPhrases is how many distinct body phrases mark a page as a policy
const MinPolicyPhrases = 4

// Classification is the advisory verdict on whether a page is a privacy policy
type Classification struct {
	URL             string               `json:"url"`
	IsPrivacyPolicy bool                 `json:"isPrivacyPolicy"`
	Signal          ClassificationSignal `json:"signal"`
	MatchedPhrases  []string             `json:"matchedPhrases,omitempty"`
}

// ClassifyRequest asks whether a URL, optionally with its HTML, is a privacy policy.
// With Fetch set and no HTML, the page is retrieved first.
type ClassifyRequest struct {
	URL   string `json:"url"`
	HTML  string `json:"html,omitempty"`
	Fetch bool   `json:"fetch,omitempty"`
}

// BatchResult is the outcome of one URL in a batch analysis
type BatchResult struct {
	URL      string           `json:"url"`
	Response *AnalyzeResponse `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Warning annotations attached to analyze responses
const (
	WarningNotPolicy      = "page may not be a privacy policy"
	WarningPlaceholder    = "analysis is a placeholder, no AI provider produced a result"
	WarningTruncated      = "policy text was truncated before analysis"
	WarningAnalysisFailed = "model response could not be parsed, manual review required"
)
