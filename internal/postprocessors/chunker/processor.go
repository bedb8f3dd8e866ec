// Package chunker splits document text into paragraph-aligned chunks.
package chunker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default soft limit of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default overlap setting. Any positive value
// carries the last paragraph of a chunk into the next one.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

const paragraphSeparator = "\n\n"

// Processor splits document text into chunks on blank lines.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	now       func() time.Time
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap. Zero disables paragraph overlap.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the source text into chunks with fresh IDs.
// Input chunks are ignored; this processor creates new chunks from the text.
func (p *Processor) Process(ctx context.Context, src *driven.ChunkSource, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks := Split(src.Text, p.chunkSize, p.overlap)
	created := p.now()
	for i := range chunks {
		chunks[i].ID = uuid.New().String()
		if src.Document != nil {
			chunks[i].DocumentID = src.Document.ID
		}
		chunks[i].CreatedAt = created
	}
	return chunks, nil
}

// Split groups the paragraphs of text into chunks of about size characters.
//
// Paragraphs are accumulated greedily. When the next paragraph would push the
// running length past size, the buffer is closed as a chunk. With a positive
// overlap the new buffer starts with the last paragraph of the closed chunk.
// A paragraph longer than size is never split. The returned chunks have
// Index, Content and ContentHash set.
func Split(text string, size, overlap int) []domain.Chunk {
	paragraphs := Paragraphs(text)
	if len(paragraphs) == 0 {
		return []domain.Chunk{}
	}

	var (
		chunks  []domain.Chunk
		current []string
		length  int
	)

	emit := func() {
		content := strings.Join(current, paragraphSeparator)
		chunks = append(chunks, domain.Chunk{
			Index:       len(chunks),
			Content:     content,
			ContentHash: Hash(content),
		})
	}

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)

		if length+paraLen > size && len(current) > 0 {
			emit()
			if overlap > 0 {
				last := current[len(current)-1]
				current = []string{last}
				length = utf8.RuneCountInString(last)
			} else {
				current = nil
				length = 0
			}
		}

		current = append(current, para)
		length += paraLen
	}

	if len(current) > 0 {
		emit()
	}
	return chunks
}

// Paragraphs splits text on blank lines, trimming each paragraph and
// dropping empty ones.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, paragraphSeparator)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// Hash returns the SHA-256 hex digest of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
