package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// DocumentStatus is the lifecycle state of an ingested document.
type DocumentStatus string

// Document lifecycle states.
const (
	// DocumentProcessing means the ingestion pipeline has not finished.
	DocumentProcessing DocumentStatus = "processing"

	// DocumentCompleted means the pipeline finished, possibly with warnings.
	DocumentCompleted DocumentStatus = "completed"

	// DocumentFailed means the pipeline aborted on a fatal error.
	DocumentFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentProcessing, DocumentCompleted, DocumentFailed:
		return true
	default:
		return false
	}
}

// Document represents an ingested study document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// FilePath is the absolute path of the source file.
	FilePath string

	// FileType is the lower-case extension without the dot (pdf, docx, txt).
	FileType string

	// FileSize is the size of the source file in bytes.
	FileSize int64

	// Status is the lifecycle state.
	Status DocumentStatus

	// Analysis is the structured LLM (or fallback) analysis.
	// Nil until the analysing step has run.
	Analysis *DocumentAnalysis

	// UploadedAt is when the document was submitted.
	UploadedAt time.Time

	// ProcessedAt is when the pipeline completed. Nil until then.
	ProcessedAt *time.Time
}

// FileTypeFromPath returns the lower-case extension of path without the dot.
func FileTypeFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// TitleFromPath derives a readable title from a file name.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	if strings.TrimSpace(title) == "" {
		return base
	}
	return title
}

// Section is one entry of a document outline.
type Section struct {
	// ID is the unique identifier for the section.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Title is the heading text, at most 255 characters.
	Title string

	// Content is the summary or the text under the heading.
	Content string

	// Level is the heading depth, starting at 1.
	Level int

	// ParentID links to an enclosing section, if any.
	ParentID *string

	// OrderIndex is the dense position of the section in the outline.
	OrderIndex int
}

// Chunk is a paragraph-aligned slice of document text.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SectionID links to the section the chunk falls under, if known.
	SectionID *string

	// Index is the dense position of the chunk, starting at 0.
	Index int

	// Content is the chunk text.
	Content string

	// ContentHash is the SHA-256 hex digest of Content.
	ContentHash string

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}
