package driven

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// VectorIndex stores chunk vectors in one collection per document.
type VectorIndex interface {
	// UpsertCollection creates the document's collection if it does not exist.
	UpsertCollection(ctx context.Context, documentID string) error

	// Add stores records with their vectors. Invalid records are skipped;
	// the number actually stored is returned.
	Add(ctx context.Context, documentID string, records []domain.VectorRecord, vectors [][]float32) (int, error)

	// Search returns the topK nearest chunks of one document, closest first.
	Search(ctx context.Context, documentID string, query []float32, topK int) ([]domain.RetrievalHit, error)

	// SearchAll searches every collection and returns the global topK.
	SearchAll(ctx context.Context, query []float32, topK int) ([]domain.RetrievalHit, error)

	// Count returns the number of records in a document's collection.
	Count(ctx context.Context, documentID string) (int, error)

	// Delete drops a document's collection. Deleting a missing collection succeeds.
	Delete(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}
