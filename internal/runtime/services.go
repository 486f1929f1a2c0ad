package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Services holds the long-lived analysis providers and infrastructure handles
// created at startup, and releases them on shutdown.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks which backends are active
	config *domain.RuntimeConfig

	providers []driven.AnalysisProvider
	closers   []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	if config == nil {
		config = domain.NewRuntimeConfig("")
	}
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// Providers returns the analysis providers in preference order
func (s *Services) Providers() []driven.AnalysisProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]driven.AnalysisProvider, len(s.providers))
	copy(out, s.providers)
	return out
}

// SetProviders replaces the analysis providers.
// Closes the old providers. Updates config flags.
func (s *Services) SetProviders(providers []driven.AnalysisProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.providers {
		_ = p.Close()
	}

	s.providers = append([]driven.AnalysisProvider(nil), providers...)
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p.Name())
	}
	s.config.SetProviders(names)
}

// PingProviders checks every provider and returns the failures keyed by provider name
func (s *Services) PingProviders(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, p := range s.Providers() {
		if err := p.Ping(ctx); err != nil {
			failures[string(p.Name())] = err
		}
	}
	return failures
}

// AddCloser registers a shutdown hook. Hooks run in reverse registration order.
func (s *Services) AddCloser(name string, fn func() error) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, namedCloser{name: name, close: fn})
}

// Close shuts down all providers and registered handles
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, p := range s.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %s: %w", p.Name(), err))
		}
	}
	s.providers = nil
	s.config.SetProviders(nil)

	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", c.name, err))
		}
	}
	s.closers = nil

	return errors.Join(errs...)
}
