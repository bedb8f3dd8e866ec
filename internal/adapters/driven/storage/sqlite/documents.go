package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// documentStore implements driven.DocumentStore over one connection.
type documentStore struct {
	db dbtx
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, title, file_path, file_type, file_size, status, analysis, uploaded_at, processed_at`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	analysis, err := marshalAnalysis(doc.Analysis)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			file_path = excluded.file_path,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			status = excluded.status,
			analysis = excluded.analysis,
			processed_at = excluded.processed_at
	`, doc.ID, doc.Title, doc.FilePath, doc.FileType, doc.FileSize, string(doc.Status),
		analysis, doc.UploadedAt.UTC(), nullTime(doc.ProcessedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// ListDocuments returns every document, newest upload first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		ORDER BY uploaded_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus sets the document status and processed time.
func (s *documentStore) UpdateStatus(
	ctx context.Context, id string, status domain.DocumentStatus, processedAt *time.Time,
) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, processed_at = ? WHERE id = ?`,
		string(status), nullTime(processedAt), id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	return requireRow(res)
}

// SaveAnalysis stores the analysis on the document.
func (s *documentStore) SaveAnalysis(ctx context.Context, id string, analysis *domain.DocumentAnalysis) error {
	data, err := marshalAnalysis(analysis)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET analysis = ? WHERE id = ?`, data, id)
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return requireRow(res)
}

// ReplaceSections replaces every section of a document in one transaction.
func (s *documentStore) ReplaceSections(ctx context.Context, documentID string, sections []domain.Section) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE document_id = ?`, documentID); err != nil {
			return fmt.Errorf("clearing sections: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sections (id, document_id, title, content, level, parent_id, order_index)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, sec := range sections {
			if _, err := stmt.ExecContext(ctx, sec.ID, documentID, sec.Title, sec.Content,
				sec.Level, nullString(sec.ParentID), sec.OrderIndex); err != nil {
				return fmt.Errorf("saving section: %w", err)
			}
		}
		return nil
	})
}

// GetSections returns the sections of a document in order.
func (s *documentStore) GetSections(ctx context.Context, documentID string) ([]domain.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, title, content, level, parent_id, order_index
		FROM sections WHERE document_id = ?
		ORDER BY order_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sec domain.Section
		var parentID sql.NullString
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Title, &sec.Content,
			&sec.Level, &parentID, &sec.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		if parentID.Valid {
			sec.ParentID = &parentID.String
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}
	return sections, nil
}

// ReplaceChunks replaces every chunk of a document in one transaction.
func (s *documentStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, section_id, chunk_index, content, content_hash, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			createdAt := c.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, c.ID, documentID, nullString(c.SectionID), c.Index,
				c.Content, c.ContentHash, createdAt.UTC()); err != nil {
				return fmt.Errorf("saving chunk: %w", err)
			}
		}
		return nil
	})
}

const chunkColumns = `id, document_id, section_id, chunk_index, content, content_hash, created_at`

// GetChunks retrieves all chunks for a document, by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// DeleteDocument removes a document. Sections, chunks and process logs
// go with it through ON DELETE CASCADE.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func (s *documentStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var analysis sql.NullString
	var processedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Title, &doc.FilePath, &doc.FileType, &doc.FileSize,
		&status, &analysis, &doc.UploadedAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	if analysis.Valid && analysis.String != "" && analysis.String != jsonNull {
		var a domain.DocumentAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return nil, fmt.Errorf("unmarshalling analysis: %w", err)
		}
		a.Normalise()
		doc.Analysis = &a
	}
	return &doc, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var sectionID sql.NullString

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &sectionID, &chunk.Index,
		&chunk.Content, &chunk.ContentHash, &chunk.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	if sectionID.Valid {
		chunk.SectionID = &sectionID.String
	}
	return &chunk, nil
}

func marshalAnalysis(a *domain.DocumentAnalysis) (any, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshalling analysis: %w", err)
	}
	return string(data), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
