package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	sessions driven.SessionProvider
	index    driven.VectorIndex
}

// NewDocumentService creates a new document service. index may be nil.
func NewDocumentService(sessions driven.SessionProvider, index driven.VectorIndex) *DocumentService {
	return &DocumentService{sessions: sessions, index: index}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		var err error
		docs, err = sess.Documents().ListDocuments(ctx)
		return err
	})
	return docs, err
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	var doc *domain.Document
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		var err error
		doc, err = sess.Documents().GetDocument(ctx, documentID)
		return err
	})
	return doc, err
}

// Analysis returns the stored analysis of a document.
func (s *DocumentService) Analysis(ctx context.Context, documentID string) (*domain.DocumentAnalysis, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Analysis == nil {
		return nil, fmt.Errorf("%w: document %s has not been analysed yet", domain.ErrNotFound, documentID)
	}
	return doc.Analysis, nil
}

// Sections returns the document outline in order.
func (s *DocumentService) Sections(ctx context.Context, documentID string) ([]domain.Section, error) {
	var sections []domain.Section
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		if _, err := sess.Documents().GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		sections, err = sess.Documents().GetSections(ctx, documentID)
		return err
	})
	return sections, err
}

// Chunks returns the document chunks in order.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		if _, err := sess.Documents().GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		chunks, err = sess.Documents().GetChunks(ctx, documentID)
		return err
	})
	return chunks, err
}

// Delete removes a document, its rows and its vector collection.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		if _, err := sess.Documents().GetDocument(ctx, documentID); err != nil {
			return err
		}
		return sess.Documents().DeleteDocument(ctx, documentID)
	})
	if err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Delete(ctx, documentID); err != nil {
			logger.Warn("delete vector collection for %s: %v", documentID, err)
			return fmt.Errorf("delete vectors: %w", err)
		}
	}
	return nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(ctx context.Context, sessions driven.SessionProvider, fn func(driven.Session) error) error {
	sess, err := sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("close session: %v", cerr)
		}
	}()
	return fn(sess)
}
