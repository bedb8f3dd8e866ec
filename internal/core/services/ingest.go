package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// JobQueue accepts jobs for background processing.
type JobQueue interface {
	Submit(ctx context.Context, job Job) error
}

// IngestService accepts uploaded files and hands them to the pipeline.
type IngestService struct {
	sessions   driven.SessionProvider
	extractors driven.ExtractorRegistry
	queue      JobQueue
	runner     JobRunner
	now        func() time.Time
}

// NewIngestService creates an ingest service. queue is used by Submit and
// runner by Run; either may be nil if the caller never uses that mode.
func NewIngestService(
	sessions driven.SessionProvider,
	extractors driven.ExtractorRegistry,
	queue JobQueue,
	runner JobRunner,
) *IngestService {
	return &IngestService{
		sessions:   sessions,
		extractors: extractors,
		queue:      queue,
		runner:     runner,
		now:        time.Now,
	}
}

// Submit registers the file and queues it. It returns as soon as the
// document and its pending run are stored.
func (s *IngestService) Submit(ctx context.Context, path, title string) (*driving.Submission, error) {
	if s.queue == nil {
		return nil, domain.ErrQueueClosed
	}

	sub, err := s.register(ctx, path, title)
	if err != nil {
		return nil, err
	}

	job := Job{DocumentID: sub.Document.ID, FilePath: sub.Document.FilePath, ProcessLogID: sub.ProcessLogID}
	if err := s.queue.Submit(ctx, job); err != nil {
		s.abandon(ctx, sub, err)
		return nil, fmt.Errorf("queue document: %w", err)
	}

	logger.Info("queued %s (%s)", sub.Document.ID, sub.Document.FilePath)
	return sub, nil
}

// Run registers the file and processes it in the calling goroutine.
// The submission is returned even when processing fails.
func (s *IngestService) Run(ctx context.Context, path, title string) (*driving.Submission, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("%w: no pipeline configured", domain.ErrInvalidInput)
	}

	sub, err := s.register(ctx, path, title)
	if err != nil {
		return nil, err
	}

	job := Job{DocumentID: sub.Document.ID, FilePath: sub.Document.FilePath, ProcessLogID: sub.ProcessLogID}
	err = withSession(ctx, s.sessions, func(sess driven.Session) error {
		return s.runner.Process(ctx, sess, job)
	})
	return sub, err
}

// Progress returns the latest run of a document.
func (s *IngestService) Progress(ctx context.Context, documentID string) (*domain.ProcessLog, error) {
	var log *domain.ProcessLog
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		var err error
		log, err = GetProgress(ctx, sess.ProcessLogs(), documentID)
		return err
	})
	return log, err
}

// SupportedFormats returns the accepted file extensions.
func (s *IngestService) SupportedFormats() []string {
	return s.extractors.Supported()
}

// register validates the file and stores the document with a pending run.
func (s *IngestService) register(ctx context.Context, path, title string) (*driving.Submission, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, abs)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, abs)
	}
	if !s.extractors.Supports(abs) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", domain.ErrUnsupportedFormat,
			filepath.Ext(abs), strings.Join(s.extractors.Supported(), ", "))
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.TitleFromPath(abs)
	}
	doc := &domain.Document{
		ID:         uuid.New().String(),
		Title:      title,
		FilePath:   abs,
		FileType:   domain.FileTypeFromPath(abs),
		FileSize:   info.Size(),
		Status:     domain.DocumentProcessing,
		UploadedAt: s.now(),
	}

	var logID string
	err = withSession(ctx, s.sessions, func(sess driven.Session) error {
		if err := sess.Documents().SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		tracker := NewProcessTracker(sess.ProcessLogs(), doc.ID)
		if err := tracker.Start(ctx); err != nil {
			return err
		}
		logID = tracker.ID()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &driving.Submission{Document: doc, ProcessLogID: logID}, nil
}

// abandon records a submission that never reached the queue.
func (s *IngestService) abandon(ctx context.Context, sub *driving.Submission, cause error) {
	ctx = context.WithoutCancel(ctx)
	job := Job{DocumentID: sub.Document.ID, ProcessLogID: sub.ProcessLogID}
	err := withSession(ctx, s.sessions, func(sess driven.Session) error {
		return failJob(ctx, sess, job, "could not queue document: "+cause.Error())
	})
	if err != nil {
		logger.Error("record queue failure for %s: %v", sub.Document.ID, err)
	}
	sub.Document.Status = domain.DocumentFailed
}
