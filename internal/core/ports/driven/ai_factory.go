package driven

import (
	"github.com/custodia-labs/policylens/internal/core/domain"
)

// AIServiceFactory creates analysis providers based on configuration
type AIServiceFactory interface {
	// CreateProvider creates a provider from settings
	// Returns nil, nil if settings are not configured
	CreateProvider(settings *domain.ProviderSettings) (AnalysisProvider, error)
}
