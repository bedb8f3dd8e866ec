package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore   = (*Store)(nil)
	_ driven.ProcessLogStore = (*Store)(nil)
	_ driven.Session         = (*Store)(nil)
	_ driven.SessionProvider = (*Store)(nil)
)

// Store is an in-memory implementation of the document and process log
// stores. It doubles as its own session provider; every session shares the
// same maps.
type Store struct {
	mu          sync.RWMutex
	documents   map[string]domain.Document
	sections    map[string][]domain.Section
	chunks      map[string][]domain.Chunk
	processLogs map[string]domain.ProcessLog
	opened      int
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		documents:   make(map[string]domain.Document),
		sections:    make(map[string][]domain.Section),
		chunks:      make(map[string][]domain.Chunk),
		processLogs: make(map[string]domain.ProcessLog),
	}
}

// Open returns the store itself as a session.
func (s *Store) Open(_ context.Context) (driven.Session, error) {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return s, nil
}

// Sessions returns how many sessions were opened.
func (s *Store) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opened
}

// Documents returns the document store.
func (s *Store) Documents() driven.DocumentStore { return s }

// ProcessLogs returns the process log store.
func (s *Store) ProcessLogs() driven.ProcessLogStore { return s }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns every document, newest upload first.
func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		result = append(result, s.documents[id])
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpdateStatus sets the document status and processed time.
func (s *Store) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, processedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.ProcessedAt = processedAt
	s.documents[id] = doc
	return nil
}

// SaveAnalysis stores the analysis on the document.
func (s *Store) SaveAnalysis(_ context.Context, id string, analysis *domain.DocumentAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Analysis = analysis
	s.documents[id] = doc
	return nil
}

// ReplaceSections replaces every section of a document.
func (s *Store) ReplaceSections(_ context.Context, documentID string, sections []domain.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[documentID] = append([]domain.Section(nil), sections...)
	return nil
}

// GetSections returns the sections of a document in order.
func (s *Store) GetSections(_ context.Context, documentID string) ([]domain.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Section(nil), s.sections[documentID]...), nil
}

// ReplaceChunks replaces every chunk of a document.
func (s *Store) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[documentID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// GetChunks retrieves all chunks for a document.
func (s *Store) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks[documentID]...), nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes a document with its sections, chunks and logs.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.sections, id)
	delete(s.chunks, id)
	for logID, log := range s.processLogs {
		if log.DocumentID == id {
			delete(s.processLogs, logID)
		}
	}
	return nil
}

// SaveProcessLog stores or updates a process log.
func (s *Store) SaveProcessLog(_ context.Context, log *domain.ProcessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processLogs[log.ID] = log.Clone()
	return nil
}

// GetProcessLog retrieves a process log by ID.
func (s *Store) GetProcessLog(_ context.Context, id string) (*domain.ProcessLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.processLogs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := log.Clone()
	return &c, nil
}

// LatestProcessLog returns the most recently started log of a document.
func (s *Store) LatestProcessLog(_ context.Context, documentID string) (*domain.ProcessLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.ProcessLog
	for id := range s.processLogs {
		log := s.processLogs[id]
		if log.DocumentID != documentID {
			continue
		}
		if latest == nil || log.StartedAt.After(latest.StartedAt) ||
			(log.StartedAt.Equal(latest.StartedAt) && log.ID > latest.ID) {
			c := log.Clone()
			latest = &c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}
