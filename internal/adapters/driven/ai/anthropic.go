package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/theopenlane/httpsling"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Ensure AnthropicProvider implements AnalysisProvider
var _ driven.AnalysisProvider = (*AnthropicProvider)(nil)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 4096
)

// AnthropicProvider implements AnalysisProvider using the messages API
type AnthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey, model, baseURL string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if model == "" {
		model = domain.DefaultAnthropicModel
	}
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	return &AnthropicProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(),
	}, nil
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string    `json:"stop_reason"`
	Error      *apiError `json:"error,omitempty"`
}

func (p *AnthropicProvider) requester(opts ...httpsling.Option) *httpsling.Requester {
	base := []httpsling.Option{
		httpsling.Header("x-api-key", p.apiKey),
		httpsling.Header("anthropic-version", anthropicVersion),
		httpsling.WithHTTPClient(p.client),
	}
	return httpsling.MustNew(append(base, opts...)...)
}

// Complete sends the prompts and concatenates the text blocks of the answer
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := messagesRequest{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		System:    systemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: userPrompt}},
	}

	requester := p.requester(
		httpsling.URL(p.baseURL+"/v1/messages"),
		httpsling.Post(),
		httpsling.JSONBody(reqBody),
	)

	var out messagesResponse
	if err := receive(ctx, "Anthropic", requester, &out); err != nil {
		if out.Error != nil {
			return "", fmt.Errorf("%w: %s", err, out.Error.Message)
		}
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("Anthropic API error: %s (type: %s)", out.Error.Message, out.Error.Type)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("Anthropic returned no text content")
	}
	return sb.String(), nil
}

// Name returns the provider identifier
func (p *AnthropicProvider) Name() domain.AIProvider {
	return domain.AIProviderAnthropic
}

// Model returns the model name being used
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Ping lists models to verify the key and endpoint
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	requester := p.requester(
		httpsling.URL(p.baseURL+"/v1/models"),
		httpsling.Method(http.MethodGet),
	)
	var out struct {
		Error *apiError `json:"error,omitempty"`
	}
	return receive(ctx, "Anthropic", requester, &out)
}

// Close releases idle connections
func (p *AnthropicProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
