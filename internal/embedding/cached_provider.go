package embedding

import (
	"context"
	"time"

	"github.com/researchgraph/canonmatch/internal/resilience"
)

// CacheTTL is how long a computed embedding is kept in Cache. Statements are
// immutable once extracted (spec §3), so a long TTL is safe; it only bounds
// unbounded growth of the Redis keyspace.
const CacheTTL = 7 * 24 * time.Hour

// CachedProvider decorates a Provider with a Cache, a circuit breaker, and
// the engine's retry policy, so every caller gets spec §4.1's full
// contract — "idempotent; callers may assume stability for identical
// input" plus §4.8's fail-fast-on-sustained-outage behaviour — without
// repeating the wiring at each call site.
type CachedProvider struct {
	provider Provider
	cache    Cache
	breaker  *resilience.Breaker
	retrier  *resilience.Retrier
}

// NewCachedProvider builds a CachedProvider around provider.
func NewCachedProvider(provider Provider, cache Cache, breaker *resilience.Breaker, retrier *resilience.Retrier) *CachedProvider {
	return &CachedProvider{provider: provider, cache: cache, breaker: breaker, retrier: retrier}
}

// Embed returns the cached vector for text if present; otherwise it calls
// the underlying provider through the retry and circuit-breaker layers and
// caches the result. A provider error that is not a permanent rejection
// (ErrInputTooLong) is treated as transient and retried.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	key := CacheKey(text)

	if vec, ok := p.cache.Get(ctx, key); ok {
		return vec, nil
	}

	var vec []float64
	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		return p.breaker.Do(ctx, func(ctx context.Context) error {
			v, err := p.provider.Embed(ctx, text)
			if err != nil {
				if err == ErrInputTooLong {
					return err
				}
				return resilience.MarkTransient(err)
			}
			vec = v
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	p.cache.Set(ctx, key, vec, CacheTTL)
	return vec, nil
}
