// Package doc extracts text from legacy binary Word (.doc) files.
// Conversion is delegated to docconv, which shells out to antiword.
package doc

import (
	"context"
	"fmt"
	"os"

	"code.sajari.com/docconv/v2"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const mimeType = "application/msword"

// Extractor handles .doc documents.
type Extractor struct{}

// New creates a new .doc extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".doc"}
}

// Extract converts the file to text.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", domain.ErrParseFailure, path, err)
	}
	defer f.Close()

	res, err := docconv.Convert(f, mimeType, false)
	if err != nil {
		return "", fmt.Errorf("%w: convert %s: %w", domain.ErrParseFailure, path, err)
	}
	return extractors.NormaliseWhitespace(res.Body), nil
}
