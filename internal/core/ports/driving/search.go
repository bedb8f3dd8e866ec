package driving

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// RetrievalService finds relevant chunks and answers questions from them.
type RetrievalService interface {
	// Search returns the topK closest chunks of one document.
	Search(ctx context.Context, documentID, query string, topK int) ([]domain.RetrievalHit, error)

	// SearchAll returns the topK closest chunks across all documents.
	SearchAll(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error)

	// Ask answers a question from retrieved chunks.
	// An empty documentID searches every document.
	Ask(ctx context.Context, documentID, question string, topK int) (*domain.Answer, error)
}
