package driving

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Analysis returns the stored analysis of a document.
	// It returns domain.ErrNotFound while the analysis step has not run.
	Analysis(ctx context.Context, documentID string) (*domain.DocumentAnalysis, error)

	// Sections returns the document outline in order.
	Sections(ctx context.Context, documentID string) ([]domain.Section, error)

	// Chunks returns the document chunks in order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document, its rows and its vector collection.
	Delete(ctx context.Context, documentID string) error
}
