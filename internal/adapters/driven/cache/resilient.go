package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/metrics"
)

// Verify interface compliance
var _ driven.Cache = (*Resilient)(nil)

// Pinger is implemented by external backends that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Resilient fronts an external cache backend and never returns its failures.
// On the first backend failure it permanently switches to an in-process Memory cache.
// Get reports misses and failures alike as domain.ErrNotFound; Set and Delete failures are dropped.
type Resilient struct {
	primary  driven.Cache
	fallback *Memory
	degraded atomic.Bool
	logger   *slog.Logger
	onChange func(name string)
}

// ResilientConfig holds optional collaborators for Resilient
type ResilientConfig struct {
	Logger *slog.Logger

	// OnDegrade is called once with the fallback backend name when the downgrade happens
	OnDegrade func(name string)
}

// NewResilient wraps primary. A nil primary starts in memory mode.
// When primary implements Pinger and the ping fails, the cache starts degraded.
func NewResilient(ctx context.Context, primary driven.Cache, fallback *Memory, cfg ResilientConfig) *Resilient {
	if fallback == nil {
		fallback = NewMemory(DefaultSweepInterval)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resilient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		onChange: cfg.OnDegrade,
	}

	if primary == nil {
		r.degraded.Store(true)
		return r
	}
	if p, ok := primary.(Pinger); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			r.degrade(err)
		}
	}
	return r
}

// Degraded reports whether the cache has switched to the in-process backend
func (r *Resilient) Degraded() bool {
	return r.degraded.Load()
}

func (r *Resilient) active() driven.Cache {
	if r.degraded.Load() {
		return r.fallback
	}
	return r.primary
}

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	backend := r.active()
	value, err := backend.Get(ctx, key)
	if err == nil {
		metrics.CacheRequests.WithLabelValues(backend.Name(), "hit").Inc()
		return value, nil
	}
	metrics.CacheRequests.WithLabelValues(backend.Name(), "miss").Inc()
	if !errors.Is(err, domain.ErrNotFound) {
		r.fail(ctx, backend, err)
	}
	return nil, domain.ErrNotFound
}

func (r *Resilient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	backend := r.active()
	if err := backend.Set(ctx, key, value, ttl); err != nil {
		r.fail(ctx, backend, err)
		if r.degraded.Load() {
			_ = r.fallback.Set(ctx, key, value, ttl)
		}
	}
	return nil
}

func (r *Resilient) Delete(ctx context.Context, key string) error {
	backend := r.active()
	if err := backend.Delete(ctx, key); err != nil {
		r.fail(ctx, backend, err)
	}
	return nil
}

func (r *Resilient) Clear(ctx context.Context) error {
	backend := r.active()
	if err := backend.Clear(ctx); err != nil {
		r.fail(ctx, backend, err)
	}
	return nil
}

func (r *Resilient) Name() string {
	return r.active().Name()
}

// Close stops the fallback sweep
func (r *Resilient) Close() error {
	return r.fallback.Close()
}

// fail downgrades on a primary backend failure. Errors caused by the caller's
// own cancelled or expired context say nothing about the backend.
func (r *Resilient) fail(ctx context.Context, backend driven.Cache, err error) {
	if backend == driven.Cache(r.fallback) {
		r.logger.Debug("memory cache operation failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		r.logger.Debug("cache operation abandoned by caller", "backend", backend.Name(), "error", err)
		return
	}
	r.degrade(err)
}

func (r *Resilient) degrade(err error) {
	if !r.degraded.CompareAndSwap(false, true) {
		return
	}
	r.logger.Warn("cache backend unavailable, using in-process cache for the rest of this process",
		"backend", r.primary.Name(),
		"error", err)
	metrics.CacheDegraded.Set(1)
	if r.onChange != nil {
		r.onChange(r.fallback.Name())
	}
}
