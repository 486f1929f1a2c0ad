package services

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/policylens/internal/classifier"
	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/policylens/internal/core/ports/driving"
	"github.com/custodia-labs/policylens/internal/extraction"
)

const validAnalysisJSON = `{
  "summary": ["Collects account and usage data", "Shares data with advertisers"],
  "dataCollection": {"account": ["email", "name"], "usage": ["pages viewed"]},
  "dataSharing": {"advertisers": "targeted advertising"},
  "retention": "Kept while the account is active",
  "userRights": ["access", "deletion"],
  "score": {"value": 62, "explanation": "Reasonable controls, broad sharing"},
  "redFlags": ["Sells data to partners"],
  "compliance": {"GDPR": "partially compliant"}
}`

var policyParagraphs = []string{
	"This privacy policy explains how we collect, use and share personal data when you use our services and websites.",
	"We collect information you provide directly, such as your name, email address and payment details, and information collected automatically.",
	"We may share personal information with third parties who provide services on our behalf, including analytics and advertising partners.",
	"You have rights under data protection law, including the right to access, correct and delete your data, and you can opt out of marketing.",
	"We retain personal data for as long as your account is active or as needed to provide services, comply with legal obligations and resolve disputes.",
	"The controller responsible for processing is Example Inc. You may contact our data protection officer with any questions about this policy.",
}

// policyPage renders a policy document; extra paragraphs change its content
func policyPage(extra ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Privacy Policy - Example</title></head><body>")
	sb.WriteString("<nav>Home | Products | Contact</nav><main><article class=\"privacy-policy\"><h1>Privacy Policy</h1>")
	sb.WriteString("<p>Last updated: January 15, 2024</p>")
	for _, p := range append(append([]string{}, policyParagraphs...), extra...) {
		fmt.Fprintf(&sb, "<p>%s</p>", p)
	}
	sb.WriteString("</article></main><footer>Copyright Example</footer></body></html>")
	return sb.String()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClock is a settable clock shared by the services under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// pipeline bundles a PolicyService with the fakes behind it
type pipeline struct {
	clock     *testClock
	http      *mocks.MockFetchStrategy
	heavy     *mocks.MockFetchStrategy
	cache     *mocks.MockCache
	primary   *mocks.MockAnalysisProvider
	secondary *mocks.MockAnalysisProvider
	store     *mocks.MockPolicyStore
	logs      *mocks.MockRequestLogStore
	svc       driving.PolicyService
}

type pipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	environment domain.Environment
	noProviders bool
	noSecondary bool
	complex     []string
}

func withEnvironment(env domain.Environment) pipelineOption {
	return func(o *pipelineOptions) { o.environment = env }
}

func withoutProviders() pipelineOption {
	return func(o *pipelineOptions) { o.noProviders = true }
}

func withoutSecondary() pipelineOption {
	return func(o *pipelineOptions) { o.noSecondary = true }
}

func withComplexDomains(domains ...string) pipelineOption {
	return func(o *pipelineOptions) { o.complex = domains }
}

func newPipeline(t *testing.T, opts ...pipelineOption) *pipeline {
	t.Helper()

	o := pipelineOptions{environment: domain.EnvironmentDevelopment}
	for _, opt := range opts {
		opt(&o)
	}

	p := &pipeline{
		clock:     newTestClock(),
		http:      mocks.NewMockFetchStrategy(domain.FetchMethodHTTP),
		heavy:     mocks.NewMockFetchStrategy(domain.FetchMethodBrowser),
		cache:     mocks.NewMockCache(),
		primary:   mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, validAnalysisJSON),
		secondary: mocks.NewMockAnalysisProvider(domain.AIProviderAnthropic, validAnalysisJSON),
		store:     mocks.NewMockPolicyStore(),
		logs:      mocks.NewMockRequestLogStore(),
	}

	var providers []driven.AnalysisProvider
	if !o.noProviders {
		providers = append(providers, p.primary)
		if !o.noSecondary {
			providers = append(providers, p.secondary)
		}
	}

	logger := discardLogger()
	p.svc = NewPolicyService(PolicyServiceConfig{
		Fetcher: NewFetcher(FetcherConfig{
			HTTP:    p.http,
			Heavy:   p.heavy,
			Domains: staticDomains(o.complex),
			Cache:   p.cache,
			Logger:  logger,
		}),
		Extractor:  extraction.New(extraction.Config{Logger: logger}),
		Classifier: classifier.New(),
		Analyzer: NewAnalyzer(AnalyzerConfig{
			Providers:   providers,
			Preferred:   domain.AIProviderOpenAI,
			Cache:       p.cache,
			Environment: o.environment,
			Logger:      logger,
		}),
		Repository: NewPolicyRepository(RepositoryConfig{
			Store:  p.store,
			Logger: logger,
			Now:    p.clock.Now,
		}),
		RequestLog: p.logs,
		Logger:     logger,
		Now:        p.clock.Now,
	})
	return p
}

// staticDomains is a minimal ComplexDomainRegistry for service tests
type staticDomains []string

func (d staticDomains) IsComplex(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, c := range d {
		if host == c || strings.HasSuffix(host, "."+c) {
			return true
		}
	}
	return false
}

func (d staticDomains) Domains() []string {
	return append([]string(nil), d...)
}
