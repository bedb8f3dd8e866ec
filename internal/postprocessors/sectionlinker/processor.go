// Package sectionlinker attaches chunks to the outline section they fall under.
package sectionlinker

import (
	"context"
	"strings"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor sets Chunk.SectionID by locating section titles in chunk text.
// Only sections after the last match are considered, so a chunk inherits the
// most recent heading seen at or before it. Chunks before the first matched
// heading stay unlinked.
type Processor struct{}

// New creates a new section linker.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "section_linker"
}

// Process links chunks in place and returns them.
func (p *Processor) Process(_ context.Context, src *driven.ChunkSource, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(src.Sections) == 0 {
		return chunks, nil
	}

	current := -1
	for i := range chunks {
		for next := current + 1; next < len(src.Sections); next++ {
			title := strings.TrimSpace(src.Sections[next].Title)
			if title != "" && strings.Contains(chunks[i].Content, title) {
				current = next
			}
		}
		if current >= 0 {
			id := src.Sections[current].ID
			chunks[i].SectionID = &id
		}
	}
	return chunks, nil
}
