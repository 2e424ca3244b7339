package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Collaborator names the external dependency a breaker guards, used as the
// gobreaker.Settings.Name and in state-change logging.
type Collaborator string

const (
	CollaboratorEmbeddingProvider Collaborator = "embedding_provider"
	CollaboratorVectorIndex       Collaborator = "vector_index"
	CollaboratorAgentRole         Collaborator = "agent_role"
	CollaboratorSlack             Collaborator = "slack_alerting"
)

// Breaker wraps a single external collaborator call with gobreaker's
// closed/open/half-open state machine (spec §4.8: "a collaborator that
// keeps failing stops being retried immediately and instead fails fast").
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker builds a Breaker for the named collaborator. It trips after 5
// consecutive failures, stays open for 30s, and allows a single half-open
// probe request before deciding whether to close again.
func NewBreaker(name Collaborator) *Breaker {
	logger := slog.With("component", "resilience.breaker", "collaborator", string(name))

	settings := gobreaker.Settings{
		Name:        string(name),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do executes fn through the breaker. When the breaker is open it returns
// gobreaker.ErrOpenState without invoking fn, which callers should surface
// as a transient error to the Retrier rather than a permanent failure.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// State reports the breaker's current state, useful for health/readiness
// surfaces and the operator alert in spec §4.8.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
