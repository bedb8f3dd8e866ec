package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// DocumentStore persists documents, their sections and their chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// UpdateStatus changes a document's lifecycle state.
	// processedAt is stored when non-nil.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, processedAt *time.Time) error

	// SaveAnalysis stores the analysis of a document.
	SaveAnalysis(ctx context.Context, id string, analysis *domain.DocumentAnalysis) error

	// ReplaceSections replaces all sections of a document.
	ReplaceSections(ctx context.Context, documentID string, sections []domain.Section) error

	// GetSections returns a document's sections in order.
	GetSections(ctx context.Context, documentID string) ([]domain.Section, error)

	// ReplaceChunks replaces all chunks of a document.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document, by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document with its sections, chunks and process logs.
	DeleteDocument(ctx context.Context, id string) error
}

// ProcessLogStore persists ingestion runs.
type ProcessLogStore interface {
	// SaveProcessLog inserts or replaces a run record.
	SaveProcessLog(ctx context.Context, log *domain.ProcessLog) error

	// GetProcessLog retrieves a run by ID.
	GetProcessLog(ctx context.Context, id string) (*domain.ProcessLog, error)

	// LatestProcessLog returns the newest run for a document.
	// Returns domain.ErrNotFound when the document has never been processed.
	LatestProcessLog(ctx context.Context, documentID string) (*domain.ProcessLog, error)
}

// Session is a persistence scope owned by exactly one job.
type Session interface {
	// Documents returns the document store bound to this session.
	Documents() DocumentStore

	// ProcessLogs returns the process log store bound to this session.
	ProcessLogs() ProcessLogStore

	// Close releases the session. It is safe to call more than once.
	Close() error
}

// SessionProvider opens independent persistence sessions.
type SessionProvider interface {
	// Open returns a new session. The caller must Close it.
	Open(ctx context.Context) (Session, error)
}
