package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/resilience"
)

func TestCachedProvider_CachesAfterFirstCall(t *testing.T) {
	calls := 0
	provider := ProviderFunc(func(_ context.Context, text string) ([]float64, error) {
		calls++
		return []float64{1, 2, 3}, nil
	})

	cp := NewCachedProvider(
		provider,
		NewLRUCache(16),
		resilience.NewBreaker(resilience.CollaboratorEmbeddingProvider),
		resilience.NewRetrier(config.DefaultConfig().Retry),
	)

	ctx := context.Background()
	v1, err := cp.Embed(ctx, "gradient descent diverges on non-convex loss")
	require.NoError(t, err)
	v2, err := cp.Embed(ctx, "gradient descent diverges on non-convex loss")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestCachedProvider_InputTooLongIsNotRetried(t *testing.T) {
	calls := 0
	provider := ProviderFunc(func(_ context.Context, text string) ([]float64, error) {
		calls++
		return nil, ErrInputTooLong
	})

	cp := NewCachedProvider(
		provider,
		NewLRUCache(16),
		resilience.NewBreaker(resilience.CollaboratorEmbeddingProvider),
		resilience.NewRetrier(config.DefaultConfig().Retry),
	)

	_, err := cp.Embed(context.Background(), "too long")
	assert.ErrorIs(t, err, ErrInputTooLong)
	assert.Equal(t, 1, calls)
}
