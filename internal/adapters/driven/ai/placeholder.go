package ai

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure PlaceholderProvider implements AnalysisProvider
var _ driven.AnalysisProvider = (*PlaceholderProvider)(nil)

// PlaceholderProvider answers every prompt with the labeled placeholder analysis.
// It lets development setups exercise the pipeline without model credentials.
type PlaceholderProvider struct{}

// NewPlaceholderProvider creates a new placeholder provider
func NewPlaceholderProvider() *PlaceholderProvider {
	return &PlaceholderProvider{}
}

// Complete returns the placeholder analysis as JSON
func (p *PlaceholderProvider) Complete(ctx context.Context, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := json.Marshal(domain.PlaceholderAnalysis("No AI provider is configured for this environment."))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Name returns the provider identifier
func (p *PlaceholderProvider) Name() domain.AIProvider {
	return domain.AIProviderPlaceholder
}

// Model returns a fixed marker, no model is involved
func (p *PlaceholderProvider) Model() string {
	return "none"
}

func (p *PlaceholderProvider) Ping(context.Context) error {
	return nil
}

func (p *PlaceholderProvider) Close() error {
	return nil
}
