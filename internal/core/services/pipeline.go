package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Job is one document waiting to be ingested.
type Job struct {
	// DocumentID is the document created at submit time.
	DocumentID string

	// FilePath is the uploaded file.
	FilePath string

	// ProcessLogID is the pending run created at submit time.
	// Empty means the pipeline starts a new run.
	ProcessLogID string
}

// IngestPipeline turns an uploaded file into stored, searchable knowledge:
// text, analysis, outline, chunks and vectors.
//
// Only extraction, empty-document and storage failures are fatal. LLM and
// vector failures are recorded as warnings and the run still completes.
type IngestPipeline struct {
	extractors    driven.ExtractorRegistry
	analyzer      *Analyzer
	chunker       driven.PostProcessorPipeline
	gateway       driven.EmbeddingGateway
	index         driven.VectorIndex
	minTextLength int
}

// NewIngestPipeline creates the pipeline. gateway and index may be nil,
// in which case vectorisation is skipped with a warning.
func NewIngestPipeline(
	extractors driven.ExtractorRegistry,
	analyzer *Analyzer,
	chunker driven.PostProcessorPipeline,
	gateway driven.EmbeddingGateway,
	index driven.VectorIndex,
	minTextLength int,
) *IngestPipeline {
	if minTextLength <= 0 {
		minTextLength = domain.DefaultMinTextLength
	}
	return &IngestPipeline{
		extractors:    extractors,
		analyzer:      analyzer,
		chunker:       chunker,
		gateway:       gateway,
		index:         index,
		minTextLength: minTextLength,
	}
}

// Process runs every step for job inside session. The returned error is the
// fatal failure, already recorded on the document and the process log.
func (p *IngestPipeline) Process(ctx context.Context, session driven.Session, job Job) (err error) {
	tracker, err := p.openRun(ctx, session, job)
	if err != nil {
		logger.Warn("ingest of %s failed: %v", job.DocumentID, err)
		if ferr := failJob(context.WithoutCancel(ctx), session, job, err.Error()); ferr != nil {
			logger.Error("record failure for %s: %v", job.DocumentID, ferr)
		}
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			p.fail(ctx, session, tracker, job.DocumentID, err, fmt.Sprintf("%v\n%s", r, debug.Stack()))
		}
	}()

	if err = p.run(ctx, session, tracker, job); err != nil {
		p.fail(ctx, session, tracker, job.DocumentID, err, errorTrace(err))
		return err
	}
	return nil
}

func (p *IngestPipeline) openRun(ctx context.Context, session driven.Session, job Job) (*ProcessTracker, error) {
	logs := session.ProcessLogs()
	if job.ProcessLogID != "" {
		record, err := logs.GetProcessLog(ctx, job.ProcessLogID)
		if err == nil {
			return AttachProcessTracker(logs, record), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load process log: %w", err)
		}
		logger.Warn("process log %s not found, starting a new run", job.ProcessLogID)
	}

	tracker := NewProcessTracker(logs, job.DocumentID)
	if err := tracker.Start(ctx); err != nil {
		return nil, err
	}
	return tracker, nil
}

//nolint:gocyclo // Sequential pipeline steps
func (p *IngestPipeline) run(ctx context.Context, session driven.Session, tracker *ProcessTracker, job Job) error {
	docs := session.Documents()

	doc, err := docs.GetDocument(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	// 1. Resolve
	path, err := filepath.Abs(job.FilePath)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, job.FilePath)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}

	// 2. Parse
	if err := tracker.Advance(ctx, domain.ProcessParsing, "parsing document", 5); err != nil {
		return err
	}
	text, err := p.extractors.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	textLength := utf8.RuneCountInString(strings.TrimSpace(text))
	if textLength < p.minTextLength {
		return fmt.Errorf("%w: %d characters extracted", domain.ErrEmptyDocument, textLength)
	}
	parsedLength := utf8.RuneCountInString(text)
	if err := tracker.Stats(ctx, domain.ProcessStats{ParsedTextLength: &parsedLength}); err != nil {
		return err
	}
	if err := tracker.Log(ctx, domain.LogSuccess, fmt.Sprintf("extracted %d characters", parsedLength), nil); err != nil {
		return err
	}
	if err := tracker.Advance(ctx, domain.ProcessParsing, "parse complete", 20); err != nil {
		return err
	}

	// 3. Analyze
	if err := tracker.Advance(ctx, domain.ProcessAnalyzing, "analyzing document", 25); err != nil {
		return err
	}
	started := time.Now()
	analysis := p.analyzer.Analyze(ctx, text)
	elapsed := time.Since(started).Seconds()
	if err := tracker.Stats(ctx, domain.ProcessStats{AIAnalysisTime: &elapsed}); err != nil {
		return err
	}
	if err := docs.SaveAnalysis(ctx, doc.ID, &analysis.Analysis); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	if analysis.FellBack {
		err = tracker.Log(ctx, domain.LogWarning, analysis.Warning, nil)
	} else {
		err = tracker.Log(ctx, domain.LogSuccess, "AI analysis completed", map[string]any{"seconds": elapsed})
	}
	if err != nil {
		return err
	}
	if err := tracker.Advance(ctx, domain.ProcessAnalyzing, "analysis complete", 50); err != nil {
		return err
	}

	// 4. Sections
	if err := tracker.Advance(ctx, domain.ProcessExtracting, "extracting sections", 55); err != nil {
		return err
	}
	outline := p.analyzer.ExtractSections(ctx, text)
	sections := assignSectionIDs(doc.ID, outline.Sections)
	if err := docs.ReplaceSections(ctx, doc.ID, sections); err != nil {
		return fmt.Errorf("save sections: %w", err)
	}
	sectionsCount := len(sections)
	if err := tracker.Stats(ctx, domain.ProcessStats{SectionsCount: &sectionsCount}); err != nil {
		return err
	}
	if outline.FellBack {
		if err := tracker.Log(ctx, domain.LogWarning, outline.Warning, nil); err != nil {
			return err
		}
	}
	if err := tracker.Advance(ctx, domain.ProcessExtracting, "sections extracted", 65); err != nil {
		return err
	}

	// 5. Chunk
	if err := tracker.Advance(ctx, domain.ProcessChunking, "chunking text", 70); err != nil {
		return err
	}
	chunks, err := p.chunker.Process(ctx, &driven.ChunkSource{Document: doc, Text: text, Sections: sections})
	if err != nil {
		return fmt.Errorf("chunk text: %w", err)
	}
	if err := docs.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	chunksCount := len(chunks)
	if err := tracker.Stats(ctx, domain.ProcessStats{ChunksCount: &chunksCount}); err != nil {
		return err
	}

	// 6. Vectorize
	if chunksCount == 0 {
		if err := tracker.Log(ctx, domain.LogWarning, "no chunks produced, skipping vectorization", nil); err != nil {
			return err
		}
	} else {
		if err := tracker.Advance(ctx, domain.ProcessVectorizing, "vectorizing chunks", 85); err != nil {
			return err
		}
		if vecErr := p.vectorize(ctx, tracker, doc, chunks); vecErr != nil {
			logger.Warn("vectorization failed for %s: %v", doc.ID, vecErr)
			if err := tracker.Log(ctx, domain.LogWarning, "vectorization failed: "+vecErr.Error(), nil); err != nil {
				return err
			}
		}
		if err := tracker.Advance(ctx, domain.ProcessVectorizing, "vectorization complete", 95); err != nil {
			return err
		}
	}

	// 7. Complete
	now := time.Now()
	if err := docs.UpdateStatus(ctx, doc.ID, domain.DocumentCompleted, &now); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return tracker.Complete(ctx)
}

func (p *IngestPipeline) vectorize(ctx context.Context, tracker *ProcessTracker, doc *domain.Document, chunks []domain.Chunk) error {
	if p.gateway == nil {
		return domain.ErrModelUnavailable
	}
	if p.index == nil {
		return domain.ErrVectorIndexUnavailable
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := p.gateway.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.index.UpsertCollection(ctx, doc.ID); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	added, err := p.index.Add(ctx, doc.ID, vectorRecords(doc, chunks), vectors)
	if err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}

	return tracker.Log(ctx, domain.LogSuccess, fmt.Sprintf("stored %d vectors", added),
		map[string]any{"added": added, "chunks": len(chunks)})
}

// fail records a fatal error on the document and the run. It uses a context
// detached from cancellation so a cancelled job is still recorded.
func (p *IngestPipeline) fail(ctx context.Context, session driven.Session, tracker *ProcessTracker, documentID string, cause error, trace string) {
	ctx = context.WithoutCancel(ctx)
	logger.Warn("ingest of %s failed: %v", documentID, cause)

	if err := session.Documents().UpdateStatus(ctx, documentID, domain.DocumentFailed, nil); err != nil &&
		!errors.Is(err, domain.ErrNotFound) {
		logger.Error("mark document %s failed: %v", documentID, err)
	}
	if err := tracker.Fail(ctx, cause.Error(), trace); err != nil {
		logger.Error("record failure for %s: %v", documentID, err)
	}
}

func assignSectionIDs(documentID string, sections []domain.Section) []domain.Section {
	out := make([]domain.Section, len(sections))
	for i, s := range sections {
		s.ID = uuid.New().String()
		s.DocumentID = documentID
		s.OrderIndex = i
		out[i] = s
	}
	return out
}

func vectorRecords(doc *domain.Document, chunks []domain.Chunk) []domain.VectorRecord {
	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		sectionID := ""
		if c.SectionID != nil {
			sectionID = *c.SectionID
		}
		records[i] = domain.VectorRecord{
			ID:      c.ID,
			Content: c.Content,
			Metadata: map[string]string{
				domain.MetaChunkIndex:    strconv.Itoa(c.Index),
				domain.MetaDocumentID:    doc.ID,
				domain.MetaDocumentTitle: doc.Title,
				domain.MetaSectionID:     sectionID,
			},
		}
	}
	return records
}

// errorTrace lists the wrapped error chain, outermost first.
func errorTrace(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("%T: %v", e, e))
	}
	return strings.Join(lines, "\n")
}
