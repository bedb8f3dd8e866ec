package driving

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// IngestService accepts documents for processing and reports progress.
type IngestService interface {
	// Submit registers a document and queues it for background processing.
	// It returns as soon as the document and its pending run are stored.
	Submit(ctx context.Context, path, title string) (*Submission, error)

	// Run registers a document and processes it in the calling goroutine.
	Run(ctx context.Context, path, title string) (*Submission, error)

	// Progress returns the latest run of a document.
	// Returns domain.ErrNotFound when the document has no run.
	Progress(ctx context.Context, documentID string) (*domain.ProcessLog, error)

	// SupportedFormats lists the accepted file extensions.
	SupportedFormats() []string
}

// Submission identifies an accepted ingestion.
type Submission struct {
	// Document is the stored document.
	Document *domain.Document

	// ProcessLogID is the run created for it.
	ProcessLogID string
}
