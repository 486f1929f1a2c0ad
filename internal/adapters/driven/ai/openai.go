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

// Ensure OpenAIProvider implements AnalysisProvider
var _ driven.AnalysisProvider = (*OpenAIProvider)(nil)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements AnalysisProvider using the chat completions API
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = domain.DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatRequest is the request body for the chat completions API
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatResponse is the response from the chat completions API
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Complete sends both prompts and returns the first choice's content
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	requester := httpsling.MustNew(
		httpsling.URL(p.baseURL+"/chat/completions"),
		httpsling.Post(),
		httpsling.BearerAuth(p.apiKey),
		httpsling.JSONBody(reqBody),
		httpsling.WithHTTPClient(p.client),
	)

	var out chatResponse
	if err := receive(ctx, "OpenAI", requester, &out); err != nil {
		if out.Error != nil {
			return "", fmt.Errorf("%w: %s", err, out.Error.Message)
		}
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s (type: %s)", out.Error.Message, out.Error.Type)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}

// Name returns the provider identifier
func (p *OpenAIProvider) Name() domain.AIProvider {
	return domain.AIProviderOpenAI
}

// Model returns the model name being used
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Ping lists models to verify the key and endpoint
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	requester := httpsling.MustNew(
		httpsling.URL(p.baseURL+"/models"),
		httpsling.Method(http.MethodGet),
		httpsling.BearerAuth(p.apiKey),
		httpsling.WithHTTPClient(p.client),
	)
	var out struct {
		Error *apiError `json:"error,omitempty"`
	}
	return receive(ctx, "OpenAI", requester, &out)
}

// Close releases idle connections
func (p *OpenAIProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
