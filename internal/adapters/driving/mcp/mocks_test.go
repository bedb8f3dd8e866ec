package mcp

import (
	"context"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	submission *driving.Submission
	log        *domain.ProcessLog
	err        error

	gotPath  string
	gotTitle string
}

func (m *mockIngestService) Submit(_ context.Context, path, title string) (*driving.Submission, error) {
	m.gotPath, m.gotTitle = path, title
	return m.submission, m.err
}

func (m *mockIngestService) Run(ctx context.Context, path, title string) (*driving.Submission, error) {
	return m.Submit(ctx, path, title)
}

func (m *mockIngestService) Progress(_ context.Context, _ string) (*domain.ProcessLog, error) {
	return m.log, m.err
}

func (m *mockIngestService) SupportedFormats() []string {
	return []string{".pdf", ".txt"}
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	hits   []domain.RetrievalHit
	answer *domain.Answer
	err    error

	gotDocumentID string
	gotTopK       int
}

func (m *mockRetrievalService) Search(_ context.Context, documentID, _ string, topK int) ([]domain.RetrievalHit, error) {
	m.gotDocumentID, m.gotTopK = documentID, topK
	return m.hits, m.err
}

func (m *mockRetrievalService) SearchAll(_ context.Context, _ string, topK int) ([]domain.RetrievalHit, error) {
	m.gotTopK = topK
	return m.hits, m.err
}

func (m *mockRetrievalService) Ask(_ context.Context, documentID, _ string, topK int) (*domain.Answer, error) {
	m.gotDocumentID, m.gotTopK = documentID, topK
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	analysis  *domain.DocumentAnalysis
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	if len(m.documents) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.documents[0], m.err
}

func (m *mockDocumentService) Analysis(_ context.Context, _ string) (*domain.DocumentAnalysis, error) {
	return m.analysis, m.err
}

func (m *mockDocumentService) Sections(_ context.Context, _ string) ([]domain.Section, error) {
	return nil, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func newTestServer(ports *Ports) *Server {
	if ports.Ingest == nil {
		ports.Ingest = &mockIngestService{}
	}
	if ports.Retrieval == nil {
		ports.Retrieval = &mockRetrievalService{}
	}
	s, err := NewServer(ports)
	if err != nil {
		panic(err)
	}
	return s
}
