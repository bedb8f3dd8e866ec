package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// ProcessTracker records the progress of one ingestion run and persists
// every change through the process log store.
type ProcessTracker struct {
	mu     sync.Mutex
	store  driven.ProcessLogStore
	record *domain.ProcessLog
	now    func() time.Time
}

// NewProcessTracker creates a tracker for a new run of documentID.
// Call Start to persist the record.
func NewProcessTracker(store driven.ProcessLogStore, documentID string) *ProcessTracker {
	return &ProcessTracker{
		store: store,
		record: &domain.ProcessLog{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Status:     domain.ProcessPending,
			TotalSteps: domain.TotalProcessSteps,
		},
		now: time.Now,
	}
}

// AttachProcessTracker resumes a record created earlier, typically at submit time.
func AttachProcessTracker(store driven.ProcessLogStore, record *domain.ProcessLog) *ProcessTracker {
	c := record.Clone()
	if c.TotalSteps == 0 {
		c.TotalSteps = domain.TotalProcessSteps
	}
	return &ProcessTracker{store: store, record: &c, now: time.Now}
}

// ID returns the process log ID.
func (t *ProcessTracker) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record.ID
}

// Snapshot returns a copy of the current record.
func (t *ProcessTracker) Snapshot() domain.ProcessLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record.Clone()
}

// Start persists the record in the pending state.
func (t *ProcessTracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.record.Status = domain.ProcessPending
	t.record.Progress = 0
	t.record.CompletedSteps = 0
	t.record.StartedAt = now
	t.appendLocked(domain.LogInfo, "processing task created", nil)
	return t.saveLocked(ctx)
}

// Advance moves the run to status. Progress never decreases; floor is
// clamped to [0, 100] and only raises it. No-op once terminal.
func (t *ProcessTracker) Advance(ctx context.Context, status domain.ProcessStatus, step string, floor float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record.Status.IsTerminal() {
		return nil
	}

	t.record.Status = status
	t.record.Progress = max(t.record.Progress, clamp(floor, 0, 100))
	t.record.CompletedSteps = completedSteps(t.record.Progress)
	t.record.CurrentStep = step
	t.appendLocked(domain.LogInfo, "started: "+step, nil)
	return t.saveLocked(ctx)
}

// Log appends an entry to the run's audit trail. No-op once terminal.
func (t *ProcessTracker) Log(ctx context.Context, level domain.LogLevel, message string, details map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record.Status.IsTerminal() {
		return nil
	}
	if !level.IsValid() {
		level = domain.LogInfo
	}
	t.appendLocked(level, message, details)
	return t.saveLocked(ctx)
}

// Stats merges patch into the run statistics. No-op once terminal.
func (t *ProcessTracker) Stats(ctx context.Context, patch domain.ProcessStats) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record.Status.IsTerminal() {
		return nil
	}
	t.record.Stats.Merge(patch)
	return t.saveLocked(ctx)
}

// Complete marks the run completed. Idempotent once terminal.
func (t *ProcessTracker) Complete(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record.Status.IsTerminal() {
		return nil
	}

	total := t.finishLocked(domain.ProcessCompleted)
	t.record.Progress = 100
	t.record.CompletedSteps = domain.TotalProcessSteps
	t.record.CurrentStep = string(domain.ProcessCompleted)
	t.appendLocked(domain.LogSuccess, fmt.Sprintf("processing completed in %.2fs", total),
		map[string]any{"total_time": total})
	return t.saveLocked(ctx)
}

// Fail marks the run failed with message and a diagnostic trace.
// Idempotent once terminal.
func (t *ProcessTracker) Fail(ctx context.Context, message, trace string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record.Status.IsTerminal() {
		return nil
	}

	t.finishLocked(domain.ProcessFailed)
	t.record.ErrorMessage = message
	t.record.ErrorTraceback = trace
	t.appendLocked(domain.LogError, "processing failed: "+message, nil)
	return t.saveLocked(ctx)
}

func (t *ProcessTracker) finishLocked(status domain.ProcessStatus) float64 {
	now := t.now()
	total := now.Sub(t.record.StartedAt).Seconds()
	if t.record.StartedAt.IsZero() || total < 0 {
		total = 0
	}
	t.record.Status = status
	t.record.CompletedAt = &now
	t.record.Stats.TotalTime = &total
	return total
}

func (t *ProcessTracker) appendLocked(level domain.LogLevel, message string, details map[string]any) {
	t.record.Logs = append(t.record.Logs, domain.LogEntry{
		Time:    t.now(),
		Level:   level,
		Message: message,
		Details: details,
	})
}

func (t *ProcessTracker) saveLocked(ctx context.Context) error {
	t.record.UpdatedAt = t.now()
	snapshot := t.record.Clone()
	if err := t.store.SaveProcessLog(ctx, &snapshot); err != nil {
		return fmt.Errorf("save process log: %w", err)
	}
	return nil
}

// GetProgress returns the newest process log of documentID.
// It returns domain.ErrNotFound when the document was never submitted.
func GetProgress(ctx context.Context, store driven.ProcessLogStore, documentID string) (*domain.ProcessLog, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return store.LatestProcessLog(ctx, documentID)
}

func completedSteps(progress float64) int {
	return int(progress / 100 * float64(domain.TotalProcessSteps))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
