package domain

import (
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.Environment != EnvironmentDevelopment {
		t.Errorf("expected development, got %s", config.Environment)
	}
	if config.CacheBackend() != "memory" {
		t.Errorf("expected memory cache backend, got %s", config.CacheBackend())
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be unavailable initially")
	}
}

func TestRuntimeConfig_Providers(t *testing.T) {
	config := NewRuntimeConfig(EnvironmentProduction)

	names := []string{"openai", "anthropic"}
	config.SetProviders(names)
	names[0] = "mutated"

	got := config.Providers()
	if len(got) != 2 || got[0] != "openai" {
		t.Errorf("expected providers to be copied, got %v", got)
	}
	if !config.LLMAvailable() {
		t.Error("expected LLM to be available after setting providers")
	}
}

func TestRuntimeConfig_CacheBackend(t *testing.T) {
	config := NewRuntimeConfig(EnvironmentProduction)
	config.SetCacheBackend("redis")
	if config.CacheBackend() != "redis" {
		t.Errorf("expected redis, got %s", config.CacheBackend())
	}
	config.SetRenderer("chromedp")
	if config.Renderer() != "chromedp" {
		t.Errorf("expected chromedp, got %s", config.Renderer())
	}
}

func TestEnvironment_IsProduction(t *testing.T) {
	if EnvironmentDevelopment.IsProduction() {
		t.Error("development must not be production")
	}
	if !EnvironmentProduction.IsProduction() {
		t.Error("production must be production")
	}
}
