package driven

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// ChunkSource is the input to the chunking pipeline.
type ChunkSource struct {
	// Document is the document being chunked.
	Document *domain.Document

	// Text is the extracted, normalised document text.
	Text string

	// Sections is the outline already extracted, used to link chunks.
	Sections []domain.Section
}

// PostProcessor processes document text to produce chunks.
// PostProcessors are chained in a pipeline (chunking, then section linking).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes the source and the chunks so far and returns new chunks.
	// A creating processor (the chunker) receives nil and returns new chunks.
	Process(ctx context.Context, src *ChunkSource, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the source through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, src *ChunkSource) ([]domain.Chunk, error)
}
