package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// processLogStore implements driven.ProcessLogStore over one connection.
type processLogStore struct {
	db dbtx
}

var _ driven.ProcessLogStore = (*processLogStore)(nil)

// statsRow is the stored JSON shape of domain.ProcessStats.
type statsRow struct {
	ParsedTextLength *int     `json:"parsed_text_length,omitempty"`
	SectionsCount    *int     `json:"sections_count,omitempty"`
	ChunksCount      *int     `json:"chunks_count,omitempty"`
	AIAnalysisTime   *float64 `json:"ai_analysis_time,omitempty"`
	TotalTime        *float64 `json:"total_time,omitempty"`
}

const processLogColumns = `id, document_id, status, progress, current_step, total_steps, completed_steps,
	logs, error_message, error_traceback, stats, started_at, updated_at, completed_at`

// SaveProcessLog inserts or replaces a run record.
func (s *processLogStore) SaveProcessLog(ctx context.Context, log *domain.ProcessLog) error {
	logs := log.Logs
	if logs == nil {
		logs = []domain.LogEntry{}
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("marshalling log entries: %w", err)
	}
	statsJSON, err := json.Marshal(statsRow(log.Stats))
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO process_logs (`+processLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			current_step = excluded.current_step,
			total_steps = excluded.total_steps,
			completed_steps = excluded.completed_steps,
			logs = excluded.logs,
			error_message = excluded.error_message,
			error_traceback = excluded.error_traceback,
			stats = excluded.stats,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`, log.ID, log.DocumentID, string(log.Status), log.Progress, log.CurrentStep,
		log.TotalSteps, log.CompletedSteps, string(logsJSON), log.ErrorMessage,
		log.ErrorTraceback, string(statsJSON), log.StartedAt.UTC(), log.UpdatedAt.UTC(),
		nullTime(log.CompletedAt))
	if err != nil {
		return fmt.Errorf("saving process log: %w", err)
	}
	return nil
}

// GetProcessLog retrieves a run by ID.
func (s *processLogStore) GetProcessLog(ctx context.Context, id string) (*domain.ProcessLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+processLogColumns+` FROM process_logs WHERE id = ?`, id)
	return scanProcessLog(row)
}

// LatestProcessLog returns the most recently started run of a document.
func (s *processLogStore) LatestProcessLog(ctx context.Context, documentID string) (*domain.ProcessLog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+processLogColumns+` FROM process_logs
		WHERE document_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, documentID)
	return scanProcessLog(row)
}

func scanProcessLog(row *sql.Row) (*domain.ProcessLog, error) {
	var log domain.ProcessLog
	var status, logsJSON, statsJSON string
	var completedAt sql.NullTime

	if err := row.Scan(&log.ID, &log.DocumentID, &status, &log.Progress, &log.CurrentStep,
		&log.TotalSteps, &log.CompletedSteps, &logsJSON, &log.ErrorMessage, &log.ErrorTraceback,
		&statsJSON, &log.StartedAt, &log.UpdatedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning process log: %w", err)
	}

	log.Status = domain.ProcessStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}

	if logsJSON != "" && logsJSON != jsonNull {
		if err := json.Unmarshal([]byte(logsJSON), &log.Logs); err != nil {
			return nil, fmt.Errorf("unmarshalling log entries: %w", err)
		}
	}
	if log.Logs == nil {
		log.Logs = []domain.LogEntry{}
	}

	var stats statsRow
	if statsJSON != "" && statsJSON != jsonNull {
		if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
			return nil, fmt.Errorf("unmarshalling stats: %w", err)
		}
	}
	log.Stats = domain.ProcessStats(stats)

	return &log, nil
}
