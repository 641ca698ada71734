package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder(0)
	defer e.Close()

	a, err := e.Embed(context.Background(), "wiki page about deployments")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "wiki page about deployments")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimensions)
}

func TestStaticEmbedderUnitLength(t *testing.T) {
	e := NewStaticEmbedder(128)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "incremental indexing engine")
	require.NoError(t, err)
	require.Len(t, vec, 128)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

func TestStaticEmbedderEmptyInput(t *testing.T) {
	e := NewStaticEmbedder(64)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   \n\t ")
	require.NoError(t, err)
	require.Len(t, vec, 64)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedderClosed(t *testing.T) {
	e := NewStaticEmbedder(64)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close()) // idempotent

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestStaticEmbedderBatchOrder(t *testing.T) {
	e := NewStaticEmbedder(64)
	defer e.Close()

	texts := []string{"alpha", "beta", "alpha"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

// countingEmbedder records how many texts reach the inner embedder.
type countingEmbedder struct {
	*StaticEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedderAvoidsRecompute(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder(64)}
	cached := NewCachedEmbedder(inner, 10)
	defer cached.Close()

	ctx := context.Background()
	first, err := cached.Embed(ctx, "same text")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "same text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachedEmbedderBatchPartialHits(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder(64)}
	cached := NewCachedEmbedder(inner, 10)
	defer cached.Close()

	ctx := context.Background()
	_, err := cached.Embed(ctx, "warm")
	require.NoError(t, err)

	vectors, err := cached.EmbedBatch(ctx, []string{"warm", "cold"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	// Only "cold" should have reached the inner embedder in the batch.
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(DefaultConfig())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, DefaultDimensions, e.Dimensions())
	assert.IsType(t, &CachedEmbedder{}, e)

	uncached, err := NewEmbedder(Config{Backend: BackendStatic, Dimensions: 32, CacheSize: -1})
	require.NoError(t, err)
	defer uncached.Close()
	assert.IsType(t, &StaticEmbedder{}, uncached)

	_, err = NewEmbedder(Config{Backend: "qdrant"})
	require.Error(t, err)
}
