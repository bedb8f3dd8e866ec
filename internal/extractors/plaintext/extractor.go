// Package plaintext extracts text files, decoding UTF-8 first and falling
// back to GB18030 (a superset of GBK) for legacy Chinese documents.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/extractors"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt"}
}

// Extract reads and decodes the file.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrParseFailure, path, err)
	}
	text, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", domain.ErrParseFailure, path, err)
	}
	return extractors.NormaliseWhitespace(text), nil
}

// Decode converts raw bytes to a string. Valid UTF-8 (with or without a BOM)
// is used as-is; anything else is decoded as GB18030.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	logger.Debug("text is not valid UTF-8, decoding as GB18030")
	decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
