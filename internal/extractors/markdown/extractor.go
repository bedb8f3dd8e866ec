// Package markdown extracts Markdown files as plain text.
// Markup is kept verbatim; headings such as "# 第一章" still reach the
// rule-based section detector.
package markdown

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct {
	text *plaintext.Extractor
}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{text: plaintext.New()}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract reads the file with the plain text decoder.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	return e.text.Extract(ctx, path)
}
