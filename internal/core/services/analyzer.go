package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/invopop/jsonschema"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/metrics"
)

// AnalyzerConfig wires the analysis providers.
// Providers are in preference order; Preferred, when set and present, is moved first.
type AnalyzerConfig struct {
	Providers   []driven.AnalysisProvider
	Preferred   domain.AIProvider
	Cache       driven.Cache
	TTL         time.Duration
	MaxChars    int
	Environment domain.Environment
	Logger      *slog.Logger
}

// Analyzer turns extracted policy text into a structured AnalysisResult
type Analyzer struct {
	providers   []driven.AnalysisProvider
	cache       driven.Cache
	ttl         time.Duration
	maxChars    int
	environment domain.Environment
	logger      *slog.Logger
}

// Analysis is the analyzer outcome with its annotations
type Analysis struct {
	Result    domain.AnalysisResult
	Cached    bool
	Truncated bool
}

// cachedAnalysis is the value stored in the analysis namespace.
// A cached result only applies to the text it was produced from.
type cachedAnalysis struct {
	ContentHash string                `json:"contentHash"`
	Result      domain.AnalysisResult `json:"result"`
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		providers:   orderProviders(cfg.Providers, cfg.Preferred),
		cache:       cfg.Cache,
		ttl:         cfg.TTL,
		maxChars:    cfg.MaxChars,
		environment: cfg.Environment,
		logger:      cfg.Logger,
	}
	if a.ttl <= 0 {
		a.ttl = domain.DefaultAnalysisCacheTTL
	}
	if a.maxChars <= 0 {
		a.maxChars = domain.DefaultMaxAnalysisChars
	}
	if a.environment == "" {
		a.environment = domain.EnvironmentDevelopment
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// ProviderNames returns the configured providers in the order they are tried
func (a *Analyzer) ProviderNames() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, string(p.Name()))
	}
	return names
}

// Analyze returns the analysis for data, serving the analysis cache when possible.
// The preferred provider is tried first and exactly one other on failure.
func (a *Analyzer) Analyze(ctx context.Context, data domain.PolicyData) (*Analysis, error) {
	key := domain.CacheKey(domain.CacheNamespaceAnalysis, data.URL)
	hash := domain.ContentHash(data.Text)
	if cached := a.fromCache(ctx, key, hash); cached != nil {
		return &Analysis{Result: *cached, Cached: true}, nil
	}

	if len(a.providers) == 0 {
		return nil, domain.NewConfigurationError(data.URL, "no analysis provider is configured")
	}

	text, truncated := TruncateText(data.Text, a.maxChars)
	systemPrompt := SystemPrompt()
	userPrompt := UserPrompt(data, text)

	candidates := a.providers
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}

	var (
		result  *domain.AnalysisResult
		lastErr error
	)
	for i, p := range candidates {
		start := time.Now()
		raw, err := p.Complete(ctx, systemPrompt, userPrompt)
		metrics.RecordProvider(string(p.Name()), err, time.Since(start))
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", p.Name(), err)
			a.logger.Warn("analysis provider failed", "url", data.URL, "provider", p.Name(), "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		parsed := ParseAnalysis(raw)
		parsed.Provider = string(p.Name())
		if p.Name() == domain.AIProviderPlaceholder {
			parsed.Placeholder = true
		}
		result = &parsed

		if !parsed.AnalysisFailed {
			break
		}
		lastErr = fmt.Errorf("%s: unparseable response", p.Name())
		if i < len(candidates)-1 {
			a.logger.Warn("analysis response could not be parsed, trying next provider",
				"url", data.URL, "provider", p.Name())
		}
	}

	if result == nil {
		if a.environment.IsProduction() {
			return nil, domain.NewProviderError(data.URL, "all analysis providers failed", lastErr)
		}
		a.logger.Warn("all analysis providers failed, using placeholder analysis", "url", data.URL, "error", lastErr)
		placeholder := domain.PlaceholderAnalysis(errorReason(lastErr))
		result = &placeholder
	}

	if result.Cacheable() {
		a.store(ctx, key, hash, result)
	}
	return &Analysis{Result: *result, Truncated: truncated}, nil
}

func (a *Analyzer) fromCache(ctx context.Context, key, hash string) *domain.AnalysisResult {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var entry cachedAnalysis
	if err := json.Unmarshal(data, &entry); err != nil || entry.ContentHash != hash || !entry.Result.Cacheable() {
		return nil
	}
	entry.Result.Normalize()
	return &entry.Result
}

func (a *Analyzer) store(ctx context.Context, key, hash string, result *domain.AnalysisResult) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(cachedAnalysis{ContentHash: hash, Result: *result})
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		a.logger.Debug("failed to cache analysis", "key", key, "error", err)
	}
}

func orderProviders(providers []driven.AnalysisProvider, preferred domain.AIProvider) []driven.AnalysisProvider {
	ordered := make([]driven.AnalysisProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil && preferred != "" && p.Name() == preferred {
			ordered = append(ordered, p)
		}
	}
	for _, p := range providers {
		if p != nil && (preferred == "" || p.Name() != preferred) {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func errorReason(err error) string {
	switch {
	case err == nil:
		return "No provider returned a usable result."
	case errors.Is(err, domain.ErrRateLimited):
		return "Providers were rate limited."
	default:
		return "Provider error: " + err.Error()
	}
}

// TruncateText caps text at maxChars characters and appends the truncation marker
func TruncateText(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxChars])) + domain.TruncationMarker, true
}

var (
	schemaOnce sync.Once
	schemaJSON string
)

// analysisSchema returns the JSON schema of the model contract.
// Provenance fields are not part of it.
func analysisSchema() string {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			DoNotReference: true,
			ExpandedStruct: true,
		}
		s := r.Reflect(&domain.AnalysisResult{})
		for _, name := range []string{"provider", "placeholder", "analysisFailed"} {
			s.Properties.Delete(name)
		}
		s.Version = ""
		s.ID = ""

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			schemaJSON = "{}"
			return
		}
		schemaJSON = string(data)
	})
	return schemaJSON
}

// SystemPrompt instructs the model to answer with one JSON object matching the schema
func SystemPrompt() string {
	return `You are a privacy policy analyst. Read the privacy policy supplied by the user and assess it for an ordinary consumer.

Respond with ONLY a single JSON object, no prose and no code fences. The object must have exactly these top-level keys:
- "summary": array of short plain-language strings with the key points
- "dataCollection": object mapping a data category to an array of collected data items
- "dataSharing": object mapping a recipient to the purpose of sharing
- "retention": string describing how long data is kept
- "userRights": array of strings naming the rights the user can exercise
- "score": object with "value" (integer 0-100, higher is more privacy friendly) and "explanation" (string)
- "redFlags": array of strings naming concerning practices
- "compliance": object mapping a regulation name (for example GDPR, CCPA) to an assessment string

The object must validate against this JSON schema:
` + analysisSchema()
}

// UserPrompt carries the policy text and its metadata
func UserPrompt(data domain.PolicyData, text string) string {
	var sb strings.Builder
	sb.WriteString("Analyze this privacy policy.\n\n")
	fmt.Fprintf(&sb, "URL: %s\n", data.URL)
	if data.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", data.Title)
	}
	if data.Company != "" {
		fmt.Fprintf(&sb, "Company: %s\n", data.Company)
	}
	if data.LastUpdated != nil {
		fmt.Fprintf(&sb, "Last updated: %s\n", data.LastUpdated.Format("2006-01-02"))
	}
	sb.WriteString("\nPolicy text:\n")
	sb.WriteString(text)
	return sb.String()
}
