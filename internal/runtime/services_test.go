package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// mockProvider is a mock implementation for testing
type mockProvider struct {
	name    domain.AIProvider
	pingErr error
	closed  bool
}

func (m *mockProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "{}", nil
}

func (m *mockProvider) Name() domain.AIProvider {
	return m.name
}

func (m *mockProvider) Model() string {
	return "test-model"
}

func (m *mockProvider) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockProvider) Close() error {
	m.closed = true
	return nil
}

func toProviders(ps ...*mockProvider) []driven.AnalysisProvider {
	out := make([]driven.AnalysisProvider, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig(domain.EnvironmentProduction)
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to match")
	}
	if len(services.Providers()) != 0 {
		t.Error("expected no providers initially")
	}
}

func TestNewServices_NilConfig(t *testing.T) {
	services := NewServices(nil)
	if services.Config() == nil {
		t.Fatal("expected a default config")
	}
	if services.Config().Environment != domain.EnvironmentDevelopment {
		t.Errorf("expected development environment, got %s", services.Config().Environment)
	}
}

func TestServices_SetProviders(t *testing.T) {
	config := domain.NewRuntimeConfig(domain.EnvironmentDevelopment)
	services := NewServices(config)

	openai := &mockProvider{name: domain.AIProviderOpenAI}
	anthropic := &mockProvider{name: domain.AIProviderAnthropic}
	services.SetProviders(toProviders(openai, anthropic))

	got := services.Providers()
	if len(got) != 2 || got[0] != openai || got[1] != anthropic {
		t.Fatalf("unexpected providers %v", got)
	}
	names := config.Providers()
	if len(names) != 2 || names[0] != "openai" || names[1] != "anthropic" {
		t.Errorf("expected provider names in config, got %v", names)
	}
	if !config.LLMAvailable() {
		t.Error("expected LLM available")
	}
}

func TestServices_SetProvidersClosesOld(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig(domain.EnvironmentDevelopment))

	old := &mockProvider{name: domain.AIProviderOllama}
	services.SetProviders(toProviders(old))
	services.SetProviders(toProviders(&mockProvider{name: domain.AIProviderOpenAI}))

	if !old.closed {
		t.Error("expected old provider to be closed")
	}
}

func TestServices_PingProviders(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig(domain.EnvironmentDevelopment))
	services.SetProviders(toProviders(
		&mockProvider{name: domain.AIProviderOpenAI},
		&mockProvider{name: domain.AIProviderOllama, pingErr: errors.New("connection refused")},
	))

	failures := services.PingProviders(context.Background())
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if _, ok := failures["ollama"]; !ok {
		t.Errorf("expected ollama failure, got %v", failures)
	}
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig(domain.EnvironmentDevelopment)
	services := NewServices(config)

	provider := &mockProvider{name: domain.AIProviderOpenAI}
	services.SetProviders(toProviders(provider))

	var order []string
	services.AddCloser("postgres", func() error {
		order = append(order, "postgres")
		return nil
	})
	services.AddCloser("redis", func() error {
		order = append(order, "redis")
		return errors.New("already closed")
	})
	services.AddCloser("ignored", nil)

	err := services.Close()
	if err == nil {
		t.Fatal("expected close error to be reported")
	}

	if !provider.closed {
		t.Error("expected provider to be closed")
	}
	if len(order) != 2 || order[0] != "redis" || order[1] != "postgres" {
		t.Errorf("expected reverse close order, got %v", order)
	}
	if config.LLMAvailable() {
		t.Error("expected LLM unavailable after close")
	}
	if len(services.Providers()) != 0 {
		t.Error("expected providers cleared after close")
	}

	if err := services.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
}
