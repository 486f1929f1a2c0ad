package domain

import "sync"

// Environment is the deployment context the service runs in
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)

// IsProduction reports whether soft degradations must be disabled
func (e Environment) IsProduction() bool {
	return e == EnvironmentProduction
}

// RuntimeConfig tracks which backends are active at runtime.
// The cache backend can change once (external store downgrade), so access is synchronized.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	Environment Environment

	cacheBackend string
	providers    []string
	renderer     string
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(env Environment) *RuntimeConfig {
	if env == "" {
		env = EnvironmentDevelopment
	}
	return &RuntimeConfig{
		Environment:  env,
		cacheBackend: "memory",
	}
}

// CacheBackend returns the name of the active cache backend
func (c *RuntimeConfig) CacheBackend() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cacheBackend
}

// SetCacheBackend records the active cache backend
func (c *RuntimeConfig) SetCacheBackend(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheBackend = name
}

// Providers returns the configured analysis providers in preference order
func (c *RuntimeConfig) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.providers))
	copy(out, c.providers)
	return out
}

// SetProviders records the configured analysis providers
func (c *RuntimeConfig) SetProviders(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = append([]string(nil), names...)
}

// LLMAvailable returns whether at least one analysis provider is configured
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.providers) > 0
}

// Renderer returns the heavy fetch strategy name, empty when none is configured
func (c *RuntimeConfig) Renderer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renderer
}

// SetRenderer records the heavy fetch strategy name
func (c *RuntimeConfig) SetRenderer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer = name
}
