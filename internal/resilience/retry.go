// Package resilience wraps calls to the engine's external collaborators —
// the embedding provider, the vector index, and every LLM agent role — with
// the retry-with-backoff-and-jitter and circuit-breaker policies named in
// spec §4.8 and §7 and configured by the `retry.*` values in spec §6.
package resilience

import (
	"context"
	"errors"

	"github.com/sethvargo/go-retry"

	"github.com/researchgraph/canonmatch/internal/config"
)

// Transient marks an error as retryable (spec §7 "transient infrastructure").
// Wrap provider/index/role errors with this before returning them from a
// Retrier-wrapped function; anything else is treated as permanent.
type Transient struct{ Err error }

func (t *Transient) Error() string { return t.Err.Error() }
func (t *Transient) Unwrap() error { return t.Err }

// MarkTransient wraps err so Retrier recognises it as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

// Retrier runs a function with exponential backoff and jitter, retrying
// only errors wrapped by MarkTransient, up to config.Retry.Max retries after
// the first attempt.
type Retrier struct {
	backoff retry.Backoff
}

// NewRetrier builds a Retrier from the engine's retry configuration.
func NewRetrier(cfg config.RetryConfig) *Retrier {
	b := retry.NewExponential(cfg.InitialBackoff)
	b = retry.WithMaxRetries(uint64(cfg.Max), b)
	if cfg.Jitter > 0 {
		b = retry.WithJitter(cfg.Jitter, b)
	}
	return &Retrier{backoff: b}
}

// Do runs fn, retrying while it returns a Transient error, until the
// backoff policy is exhausted or ctx is cancelled. A non-transient error
// aborts immediately without retrying (spec §7: "Policy errors are
// terminal per-operation, no retry").
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, r.backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var t *Transient
		if errors.As(err, &t) {
			return retry.RetryableError(t.Unwrap())
		}
		return err
	})
}
