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

// Ensure OllamaProvider implements AnalysisProvider
var _ driven.AnalysisProvider = (*OllamaProvider)(nil)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider implements AnalysisProvider against a local Ollama server
type OllamaProvider struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama provider. No API key is needed.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if model == "" {
		model = domain.DefaultOllamaModel
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &OllamaProvider{
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(),
	}, nil
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Complete runs a non-streaming chat in JSON mode
func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := ollamaChatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
		Format: "json",
	}

	requester := httpsling.MustNew(
		httpsling.URL(p.baseURL+"/api/chat"),
		httpsling.Post(),
		httpsling.JSONBody(reqBody),
		httpsling.WithHTTPClient(p.client),
	)

	var out ollamaChatResponse
	if err := receive(ctx, "Ollama", requester, &out); err != nil {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s", err, out.Error)
		}
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", out.Error)
	}
	if out.Message.Content == "" {
		return "", fmt.Errorf("Ollama returned an empty message")
	}
	return out.Message.Content, nil
}

// Name returns the provider identifier
func (p *OllamaProvider) Name() domain.AIProvider {
	return domain.AIProviderOllama
}

// Model returns the model name being used
func (p *OllamaProvider) Model() string {
	return p.model
}

// Ping lists local models to verify the server is up
func (p *OllamaProvider) Ping(ctx context.Context) error {
	requester := httpsling.MustNew(
		httpsling.URL(p.baseURL+"/api/tags"),
		httpsling.Method(http.MethodGet),
		httpsling.WithHTTPClient(p.client),
	)
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	return receive(ctx, "Ollama", requester, &out)
}

// Close releases idle connections
func (p *OllamaProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
