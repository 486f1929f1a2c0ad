package driven

import (
	"context"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// AnalysisProvider sends a prompt to a model and returns its raw text answer.
// Parsing and repair of the answer happen in the analyzer service.
type AnalysisProvider interface {
	// Complete sends the system and user prompts and returns the model's text
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider identifier
	Name() domain.AIProvider

	// Model returns the model name being used
	Model() string

	// Ping verifies the provider is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the provider
	Close() error
}
