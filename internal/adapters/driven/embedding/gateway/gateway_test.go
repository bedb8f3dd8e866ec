package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// gatewayMockBackend returns a vector of dim whose first entry is the text length.
type gatewayMockBackend struct {
	mu       sync.Mutex
	dim      int
	reported int
	pingErr  error
	embedErr error
	batches  [][]string
	closed   bool
}

func (m *gatewayMockBackend) vector(text string) []float32 {
	v := make([]float32, m.dim)
	v[0] = float32(len(text))
	return v
}

func (m *gatewayMockBackend) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *gatewayMockBackend) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *gatewayMockBackend) Dimensions() int { return m.reported }

func (m *gatewayMockBackend) ModelName() string { return "mock-embed" }

func (m *gatewayMockBackend) Ping(context.Context) error { return m.pingErr }

func (m *gatewayMockBackend) Close() error {
	m.closed = true
	return nil
}

func newGateway(backend *gatewayMockBackend) (*Gateway, *int) {
	loads := 0
	g := New(func(context.Context) (driven.EmbeddingService, error) {
		loads++
		return backend, nil
	}, "mock", "mock-embed")
	return g, &loads
}

func TestGateway_LoadsOnce(t *testing.T) {
	backend := &gatewayMockBackend{dim: 4, reported: 4}
	g, loads := newGateway(backend)
	ctx := context.Background()

	assert.Zero(t, *loads, "nothing loads before first use")
	require.NoError(t, g.EnsureReady(ctx))
	require.NoError(t, g.EnsureReady(ctx))
	_, err := g.EmbedOne(ctx, "x")
	require.NoError(t, err)

	assert.Equal(t, 1, *loads)
}

func TestGateway_LoadFailureCached(t *testing.T) {
	loads := 0
	g := New(func(context.Context) (driven.EmbeddingService, error) {
		loads++
		return nil, errors.New("connection refused")
	}, "ollama", "nomic-embed-text")
	ctx := context.Background()

	err1 := g.EnsureReady(ctx)
	_, err2 := g.EmbedOne(ctx, "hello")
	_, err3 := g.Dimension(ctx)

	for _, err := range []error{err1, err2, err3} {
		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	}
	assert.Contains(t, err1.Error(), "connection refused")
	assert.Contains(t, err1.Error(), "nomic-embed-text")
	assert.Contains(t, err1.Error(), "docstudy settings set")
	assert.Equal(t, 1, loads)
}

func TestGateway_PingFailure(t *testing.T) {
	backend := &gatewayMockBackend{dim: 4, reported: 4, pingErr: errors.New("401")}
	g, _ := newGateway(backend)

	err := g.EnsureReady(context.Background())

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.True(t, backend.closed)
}

func TestGateway_NilLoader(t *testing.T) {
	g := New(nil, "", "")
	assert.ErrorIs(t, g.EnsureReady(context.Background()), domain.ErrModelUnavailable)
}

func TestGateway_DimensionProbe(t *testing.T) {
	backend := &gatewayMockBackend{dim: 6, reported: 0}
	g, _ := newGateway(backend)

	dim, err := g.Dimension(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, dim)
}

func TestGateway_EmbedOne(t *testing.T) {
	backend := &gatewayMockBackend{dim: 4, reported: 4}
	g, _ := newGateway(backend)
	ctx := context.Background()

	t.Run("blank input", func(t *testing.T) {
		_, err := g.EmbedOne(ctx, " \n\t")
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	})

	t.Run("vector has model dimension", func(t *testing.T) {
		v, err := g.EmbedOne(ctx, "hello")
		require.NoError(t, err)
		assert.Len(t, v, 4)
	})

	t.Run("wrong dimension", func(t *testing.T) {
		bad := &gatewayMockBackend{dim: 3, reported: 4}
		g, _ := newGateway(bad)
		_, err := g.EmbedOne(ctx, "hello")
		assert.Error(t, err)
	})
}

func TestGateway_EmbedBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("blank entries get zero vectors", func(t *testing.T) {
		backend := &gatewayMockBackend{dim: 4, reported: 4}
		g, _ := newGateway(backend)

		vectors, err := g.EmbedBatch(ctx, []string{"hello", "", "world"})

		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, make([]float32, 4), vectors[1])
		assert.NotEqual(t, make([]float32, 4), vectors[0])
		assert.NotEqual(t, make([]float32, 4), vectors[2])
		require.Len(t, backend.batches, 1)
		assert.Equal(t, []string{"hello", "world"}, backend.batches[0])
	})

	t.Run("empty slice", func(t *testing.T) {
		g, loads := newGateway(&gatewayMockBackend{dim: 4, reported: 4})
		vectors, err := g.EmbedBatch(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.Zero(t, *loads)
	})

	t.Run("all blank", func(t *testing.T) {
		g, _ := newGateway(&gatewayMockBackend{dim: 4, reported: 4})
		_, err := g.EmbedBatch(ctx, []string{"", "  "})
		assert.ErrorIs(t, err, domain.ErrNoValidInput)
	})

	t.Run("batches of 32", func(t *testing.T) {
		backend := &gatewayMockBackend{dim: 2, reported: 2}
		g, _ := newGateway(backend)
		texts := make([]string, 70)
		for i := range texts {
			texts[i] = strings.Repeat("a", i+1)
		}

		vectors, err := g.EmbedBatch(ctx, texts)

		require.NoError(t, err)
		require.Len(t, vectors, 70)
		require.Len(t, backend.batches, 3)
		assert.Len(t, backend.batches[0], 32)
		assert.Len(t, backend.batches[1], 32)
		assert.Len(t, backend.batches[2], 6)
		assert.InDelta(t, 70, vectors[69][0], 0)
	})

	t.Run("backend error", func(t *testing.T) {
		backend := &gatewayMockBackend{dim: 2, reported: 2, embedErr: errors.New("boom")}
		g, _ := newGateway(backend)
		_, err := g.EmbedBatch(ctx, []string{"a"})
		assert.ErrorContains(t, err, "boom")
	})
}

func TestGateway_ConcurrentFirstUse(t *testing.T) {
	backend := &gatewayMockBackend{dim: 4, reported: 4}
	g, loads := newGateway(backend)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.EmbedOne(context.Background(), "x")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, *loads)
}
