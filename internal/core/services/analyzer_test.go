package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/core/ports/driven/mocks"
)

func testPolicyData() domain.PolicyData {
	return domain.PolicyData{
		URL:     testPolicyURL,
		Title:   "Privacy Policy",
		Company: "Example",
		Text:    strings.Join(policyParagraphs, "\n"),
	}
}

func newTestAnalyzer(env domain.Environment, providers ...driven.AnalysisProvider) (*Analyzer, *mocks.MockCache) {
	cache := mocks.NewMockCache()
	return NewAnalyzer(AnalyzerConfig{
		Providers:   providers,
		Cache:       cache,
		Environment: env,
		Logger:      discardLogger(),
	}), cache
}

func TestAnalyzer_Success(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, validAnalysisJSON)
	a, cache := newTestAnalyzer(domain.EnvironmentProduction, primary)

	out, err := a.Analyze(context.Background(), testPolicyData())

	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.False(t, out.Truncated)
	assert.Equal(t, 62, out.Result.Score.Value)
	assert.Equal(t, string(domain.AIProviderOpenAI), out.Result.Provider)

	key := domain.CacheKey(domain.CacheNamespaceAnalysis, testPolicyURL)
	assert.True(t, cache.Has(key))
	assert.Equal(t, domain.DefaultAnalysisCacheTTL, cache.TTL(key))
	assert.Contains(t, primary.LastPrompt(), "URL: "+testPolicyURL)
	assert.Contains(t, primary.LastPrompt(), "Company: Example")
}

func TestAnalyzer_CacheHitSkipsProviders(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, validAnalysisJSON)
	a, _ := newTestAnalyzer(domain.EnvironmentProduction, primary)

	_, err := a.Analyze(context.Background(), testPolicyData())
	require.NoError(t, err)

	out, err := a.Analyze(context.Background(), testPolicyData())
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, 1, primary.Calls())
}

func TestAnalyzer_ChangedTextMissesCache(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, validAnalysisJSON)
	a, _ := newTestAnalyzer(domain.EnvironmentProduction, primary)

	_, err := a.Analyze(context.Background(), testPolicyData())
	require.NoError(t, err)

	changed := testPolicyData()
	changed.Text += "\nWe now also sell your data."
	out, err := a.Analyze(context.Background(), changed)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, primary.Calls())
}

func TestAnalyzer_NoProviders(t *testing.T) {
	a, _ := newTestAnalyzer(domain.EnvironmentDevelopment)

	_, err := a.Analyze(context.Background(), testPolicyData())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, testPolicyURL, domain.ErrorURL(err))
}

func TestAnalyzer_RateLimitFallsBackToSecondary(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, "")
	primary.SetError(fmt.Errorf("openai: %w", domain.ErrRateLimited))
	secondary := mocks.NewMockAnalysisProvider(domain.AIProviderAnthropic, validAnalysisJSON)
	a, cache := newTestAnalyzer(domain.EnvironmentProduction, primary, secondary)

	out, err := a.Analyze(context.Background(), testPolicyData())

	require.NoError(t, err)
	assert.Equal(t, string(domain.AIProviderAnthropic), out.Result.Provider)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 1, secondary.Calls())
	assert.True(t, cache.Has(domain.CacheKey(domain.CacheNamespaceAnalysis, testPolicyURL)),
		"fallback result is cached under the same key")
}

func TestAnalyzer_TriesExactlyOneFallback(t *testing.T) {
	failing := func(name domain.AIProvider) *mocks.MockAnalysisProvider {
		p := mocks.NewMockAnalysisProvider(name, "")
		p.SetError(errors.New("unavailable"))
		return p
	}
	first := failing(domain.AIProviderOpenAI)
	second := failing(domain.AIProviderAnthropic)
	third := mocks.NewMockAnalysisProvider(domain.AIProviderOllama, validAnalysisJSON)
	a, _ := newTestAnalyzer(domain.EnvironmentProduction, first, second, third)

	_, err := a.Analyze(context.Background(), testPolicyData())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 1, second.Calls())
	assert.Equal(t, 0, third.Calls())
}

func TestAnalyzer_PreferredProviderFirst(t *testing.T) {
	openai := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, validAnalysisJSON)
	anthropic := mocks.NewMockAnalysisProvider(domain.AIProviderAnthropic, validAnalysisJSON)
	a := NewAnalyzer(AnalyzerConfig{
		Providers: []driven.AnalysisProvider{openai, anthropic},
		Preferred: domain.AIProviderAnthropic,
		Logger:    discardLogger(),
	})

	assert.Equal(t, []string{"anthropic", "openai"}, a.ProviderNames())

	out, err := a.Analyze(context.Background(), testPolicyData())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", out.Result.Provider)
	assert.Equal(t, 0, openai.Calls())
}

func TestAnalyzer_PlaceholderOutsideProduction(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, "")
	primary.SetError(fmt.Errorf("openai: %w", domain.ErrRateLimited))
	a, cache := newTestAnalyzer(domain.EnvironmentDevelopment, primary)

	out, err := a.Analyze(context.Background(), testPolicyData())

	require.NoError(t, err)
	assert.True(t, out.Result.Placeholder)
	assert.Equal(t, domain.PlaceholderProvider, out.Result.Provider)
	assert.Equal(t, 50, out.Result.Score.Value)
	assert.False(t, cache.Has(domain.CacheKey(domain.CacheNamespaceAnalysis, testPolicyURL)),
		"placeholder results are never cached")
}

func TestAnalyzer_ProviderErrorInProduction(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, "")
	primary.SetError(errors.New("invalid api key"))
	a, _ := newTestAnalyzer(domain.EnvironmentProduction, primary)

	_, err := a.Analyze(context.Background(), testPolicyData())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestAnalyzer_UnparseableResponse(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, "I am unable to comply.")
	a, cache := newTestAnalyzer(domain.EnvironmentProduction, primary)

	out, err := a.Analyze(context.Background(), testPolicyData())

	require.NoError(t, err)
	assert.True(t, out.Result.AnalysisFailed)
	assert.Equal(t, domain.FailedScoreExplanation, out.Result.Score.Explanation)
	assert.Equal(t, 0, cache.Sets, "failed analyses are not cached")
}

func TestAnalyzer_UnparseableTriesSecondary(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, "garbage")
	secondary := mocks.NewMockAnalysisProvider(domain.AIProviderAnthropic, validAnalysisJSON)
	a, _ := newTestAnalyzer(domain.EnvironmentProduction, primary, secondary)

	out, err := a.Analyze(context.Background(), testPolicyData())

	require.NoError(t, err)
	assert.False(t, out.Result.AnalysisFailed)
	assert.Equal(t, "anthropic", out.Result.Provider)
}

func TestAnalyzer_TruncatesLongText(t *testing.T) {
	primary := mocks.NewMockAnalysisProvider(domain.AIProviderOpenAI, validAnalysisJSON)
	a := NewAnalyzer(AnalyzerConfig{
		Providers: []driven.AnalysisProvider{primary},
		MaxChars:  100,
		Logger:    discardLogger(),
	})

	data := testPolicyData()
	data.Text = strings.Repeat("privacy ", 100)
	out, err := a.Analyze(context.Background(), data)

	require.NoError(t, err)
	assert.True(t, out.Truncated)
	assert.Contains(t, primary.LastPrompt(), domain.TruncationMarker)
	assert.NotContains(t, primary.LastPrompt(), strings.Repeat("privacy ", 20))
}

func TestTruncateText(t *testing.T) {
	text, truncated := TruncateText("short", 10)
	assert.Equal(t, "short", text)
	assert.False(t, truncated)

	text, truncated = TruncateText("ééééééééééé", 5)
	assert.True(t, truncated)
	assert.Equal(t, "ééééé"+domain.TruncationMarker, text)
}

func TestSystemPrompt_EmbedsSchemaWithoutProvenance(t *testing.T) {
	prompt := SystemPrompt()

	idx := strings.Index(prompt, "{")
	require.GreaterOrEqual(t, idx, 0)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(prompt[idx:]), &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range analysisKeys {
		assert.Contains(t, props, key)
	}
	assert.NotContains(t, props, "provider")
	assert.NotContains(t, props, "placeholder")
	assert.NotContains(t, props, "analysisFailed")
}
