// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// It is the raw provider backend; core code talks to EmbeddingGateway.
//
// Implementations include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Gemini (text-embedding-004)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingGateway is the pipeline-facing view of an embedding model.
// The backend is loaded lazily on first use; a load failure is remembered
// and returned by every later call.
type EmbeddingGateway interface {
	// EnsureReady loads the model if needed and reports whether it is usable.
	EnsureReady(ctx context.Context) error

	// Dimension returns the native vector length of the model.
	Dimension(ctx context.Context) (int, error)

	// EmbedOne embeds a single non-empty text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts, returning exactly one vector per input.
	// Blank inputs map to zero vectors.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
