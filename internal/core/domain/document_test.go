package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocumentStatus_IsValid tests document lifecycle states
func TestDocumentStatus_IsValid(t *testing.T) {
	assert.True(t, DocumentProcessing.IsValid())
	assert.True(t, DocumentCompleted.IsValid())
	assert.True(t, DocumentFailed.IsValid())
	assert.False(t, DocumentStatus("archived").IsValid())
}

// TestFileTypeFromPath tests extension extraction
func TestFileTypeFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/tmp/notes.txt", "txt"},
		{"/tmp/Report.PDF", "pdf"},
		{"slides.docx", "docx"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileTypeFromPath(tt.path))
		})
	}
}

// TestTitleFromPath tests title derivation from file names
func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "safety training manual", TitleFromPath("/docs/safety_training-manual.pdf"))
	assert.Equal(t, "员工手册", TitleFromPath("员工手册.docx"))
	assert.Equal(t, ".env", TitleFromPath("/x/.env"))
}

// TestDocument_Fields tests document construction
func TestDocument_Fields(t *testing.T) {
	now := time.Now()
	doc := Document{
		ID:         "doc-1",
		Title:      "Handbook",
		FilePath:   "/data/handbook.pdf",
		FileType:   "pdf",
		FileSize:   2048,
		Status:     DocumentProcessing,
		UploadedAt: now,
	}

	assert.Equal(t, "doc-1", doc.ID)
	assert.Nil(t, doc.Analysis)
	assert.Nil(t, doc.ProcessedAt)
	assert.Equal(t, now, doc.UploadedAt)
}

// TestSection_Fields tests section construction
func TestSection_Fields(t *testing.T) {
	parent := "sec-0"
	sec := Section{ID: "sec-1", DocumentID: "doc-1", Title: "第一章", Level: 2, ParentID: &parent, OrderIndex: 1}

	require.NotNil(t, sec.ParentID)
	assert.Equal(t, "sec-0", *sec.ParentID)
	assert.Equal(t, 2, sec.Level)
}

// TestDocumentAnalysis_Normalise tests nil lists become empty lists
func TestDocumentAnalysis_Normalise(t *testing.T) {
	a := DocumentAnalysis{Summary: "s"}
	a.Normalise()

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key_points":[]`)
	assert.Contains(t, string(data), `"key_concepts":[]`)
	assert.Contains(t, string(data), `"learning_suggestions":[]`)
	assert.Contains(t, string(data), `"common_questions":[]`)
	assert.NotContains(t, string(data), "null")
}

// TestRetrievalHit_Relevance tests distance to relevance conversion
func TestRetrievalHit_Relevance(t *testing.T) {
	assert.InDelta(t, 0.75, RetrievalHit{Distance: 0.25}.Relevance(), 1e-9)
	assert.InDelta(t, 1.0, RetrievalHit{}.Relevance(), 1e-9)
}
