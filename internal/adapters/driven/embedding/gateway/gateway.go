// Package gateway adapts a raw embedding backend to the pipeline-facing
// EmbeddingGateway port: lazy loading, batching and zero vectors for blank
// inputs.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure Gateway implements the interface.
var _ driven.EmbeddingGateway = (*Gateway)(nil)

// DefaultBatchSize is how many texts go to the backend per call.
const DefaultBatchSize = 32

// dimensionProbe is embedded when the backend cannot report its dimension.
const dimensionProbe = "dimension probe"

// Loader builds the backend. It runs at most once per Gateway.
type Loader func(ctx context.Context) (driven.EmbeddingService, error)

// Gateway loads its backend on first use and remembers the outcome.
type Gateway struct {
	load      Loader
	provider  string
	model     string
	batchSize int

	mu      sync.Mutex
	loaded  bool
	backend driven.EmbeddingService
	dim     int
	loadErr error
}

// New creates a gateway. provider and model only feed error hints.
func New(load Loader, provider, model string) *Gateway {
	return &Gateway{
		load:      load,
		provider:  provider,
		model:     model,
		batchSize: DefaultBatchSize,
	}
}

// EnsureReady loads and pings the backend once. A failure is cached and
// returned by every later call.
func (g *Gateway) EnsureReady(ctx context.Context) error {
	_, _, err := g.ready(ctx)
	return err
}

func (g *Gateway) ready(ctx context.Context) (driven.EmbeddingService, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loaded {
		return g.backend, g.dim, g.loadErr
	}
	g.loaded = true

	backend, dim, err := g.open(ctx)
	if err != nil {
		g.loadErr = fmt.Errorf(
			"%w: provider %q model %q: %w. Run 'docstudy settings set embedding.provider <ollama|openai|gemini>' to fix",
			domain.ErrModelUnavailable, g.provider, g.model, err)
		logger.Warn("embedding: %v", g.loadErr)
		return nil, 0, g.loadErr
	}

	g.backend, g.dim = backend, dim
	logger.Debug("embedding: loaded %s (%d dimensions)", backend.ModelName(), dim)
	return backend, dim, nil
}

func (g *Gateway) open(ctx context.Context) (driven.EmbeddingService, int, error) {
	if g.load == nil {
		return nil, 0, fmt.Errorf("no embedding provider configured")
	}
	backend, err := g.load(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := backend.Ping(ctx); err != nil {
		_ = backend.Close()
		return nil, 0, err
	}

	dim := backend.Dimensions()
	if dim <= 0 {
		v, err := backend.Embed(ctx, dimensionProbe)
		if err != nil {
			_ = backend.Close()
			return nil, 0, fmt.Errorf("probe dimension: %w", err)
		}
		dim = len(v)
	}
	if dim <= 0 {
		_ = backend.Close()
		return nil, 0, fmt.Errorf("backend reported no dimension")
	}
	return backend, dim, nil
}

// Dimension returns the native vector length of the model.
func (g *Gateway) Dimension(ctx context.Context) (int, error) {
	_, dim, err := g.ready(ctx)
	return dim, err
}

// EmbedOne embeds a single non-blank text.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}
	backend, dim, err := g.ready(ctx)
	if err != nil {
		return nil, err
	}

	v, err := backend.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(v) != dim {
		return nil, fmt.Errorf("embed: got %d dimensions, want %d", len(v), dim)
	}
	return v, nil
}

// EmbedBatch returns one vector per input. Blank inputs get zero vectors;
// the rest are sent to the backend in batches.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	valid := make([]int, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return nil, domain.ErrNoValidInput
	}

	backend, dim, err := g.ready(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(valid); start += g.batchSize {
		idx := valid[start:min(start+g.batchSize, len(valid))]
		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		vectors, err := backend.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(vectors), len(batch))
		}
		for j, i := range idx {
			if len(vectors[j]) != dim {
				return nil, fmt.Errorf("embed batch: vector %d has %d dimensions, want %d", i, len(vectors[j]), dim)
			}
			out[i] = vectors[j]
		}
	}

	for i := range out {
		if out[i] == nil {
			out[i] = make([]float32, dim)
		}
	}
	return out, nil
}

// Close releases the backend if it was loaded.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.backend == nil {
		return nil
	}
	return g.backend.Close()
}
