package domain

// AIProvider identifies an analysis model provider
type AIProvider string

const (
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderOllama    AIProvider = "ollama"

	// AIProviderPlaceholder never calls a model; it answers with PlaceholderAnalysis.
	// Usable only outside production.
	AIProviderPlaceholder AIProvider = PlaceholderProvider
)

// Default models per provider
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultOllamaModel    = "llama3.1"
)

// DefaultMaxAnalysisChars caps the policy text sent to a provider
const DefaultMaxAnalysisChars = 20000

// TruncationMarker is appended to policy text cut at the analysis cap
const TruncationMarker = "\n\n[... policy text truncated ...]"

// ProviderSettings configures one analysis provider
type ProviderSettings struct {
	Provider AIProvider `json:"provider" yaml:"provider"`
	Model    string     `json:"model" yaml:"model"`
	APIKey   string     `json:"-" yaml:"api_key"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty" yaml:"base_url"`
}

// IsConfigured returns true if the provider has what it needs to be called
func (s *ProviderSettings) IsConfigured() bool {
	if s.Provider == "" {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama, AIProviderPlaceholder:
		return false
	default:
		return true
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama, AIProviderPlaceholder:
		return true
	default:
		return false
	}
}

// DefaultModel returns the model used when none is configured
func (p AIProvider) DefaultModel() string {
	switch p {
	case AIProviderOpenAI:
		return DefaultOpenAIModel
	case AIProviderAnthropic:
		return DefaultAnthropicModel
	case AIProviderOllama:
		return DefaultOllamaModel
	default:
		return ""
	}
}
