package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// mockProcessor is a test processor that returns predefined chunks.
type mockProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *driven.ChunkSource, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
	p.Add(&mockProcessor{name: "test"})
	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipeline_Process_NilSource(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	if err == nil {
		t.Error("expected error for nil source")
	}
}

func TestPipeline_Process_Chained(t *testing.T) {
	created := []domain.Chunk{{ID: "c1"}, {ID: "c2"}}
	p := NewPipeline(
		&mockProcessor{name: "creator", chunks: created},
		&mockProcessor{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), &driven.ChunkSource{Text: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || chunks[1].ID != "c2" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&mockProcessor{name: "broken", err: boom})

	_, err := p.Process(context.Background(), &driven.ChunkSource{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped processor error, got %v", err)
	}
}

func TestBuildPipeline_Defaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := BuildPipeline(r, domain.DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("BuildPipeline failed: %v", err)
	}
	names := p.Names()
	if len(names) != 2 || names[0] != "chunker" || names[1] != "section_linker" {
		t.Errorf("unexpected processors: %v", names)
	}

	src := &driven.ChunkSource{
		Document: &domain.Document{ID: "doc-1"},
		Text:     "第一章 总则\n\n安全第一。",
		Sections: []domain.Section{{ID: "s1", Title: "第一章 总则"}},
	}
	chunks, err := p.Process(context.Background(), src)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].SectionID == nil || *chunks[0].SectionID != "s1" {
		t.Errorf("expected chunk linked to s1, got %v", chunks[0].SectionID)
	}
}

func TestBuildPipeline_UnknownProcessor(t *testing.T) {
	_, err := BuildPipeline(NewRegistry(), domain.PipelineConfig{Processors: []string{"stemmer"}})
	if err == nil {
		t.Error("expected error for unknown processor")
	}
}
