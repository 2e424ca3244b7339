// Package embedding adapts the external embedding provider behind the
// `embed(text) → vector` contract of spec §4.1, caching results so that
// re-embedding identical statements (canonical-statement re-embeds on
// refinement, scenario replays) does not repeatedly pay provider latency.
package embedding

import "context"

// Provider produces a fixed-dimension dense vector for a piece of text.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns a vector of the configured dimension for text. It
	// returns ErrInputTooLong if text exceeds the provider's limit, or
	// ErrProviderUnavailable (wrapped as resilience.Transient by callers)
	// on outage.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed implements Provider.
func (f ProviderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
