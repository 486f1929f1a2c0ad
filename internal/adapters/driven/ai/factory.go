package ai

import (
	"fmt"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates analysis providers based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateProvider creates an analysis provider from settings
func (f *Factory) CreateProvider(settings *domain.ProviderSettings) (driven.AnalysisProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIProvider(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderAnthropic:
		return NewAnthropicProvider(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderOllama:
		return NewOllamaProvider(settings.BaseURL, settings.Model)
	case domain.AIProviderPlaceholder:
		return NewPlaceholderProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateProviders builds every configured provider in order, skipping unconfigured entries
func (f *Factory) CreateProviders(settings []domain.ProviderSettings) ([]driven.AnalysisProvider, error) {
	providers := make([]driven.AnalysisProvider, 0, len(settings))
	for i := range settings {
		p, err := f.CreateProvider(&settings[i])
		if err != nil {
			return nil, err
		}
		if p != nil {
			providers = append(providers, p)
		}
	}
	return providers, nil
}
