package domain

import "time"

// ProcessStatus is a stage of the ingestion pipeline.
type ProcessStatus string

// Pipeline stages in execution order.
const (
	ProcessPending     ProcessStatus = "pending"
	ProcessParsing     ProcessStatus = "parsing"
	ProcessAnalyzing   ProcessStatus = "analyzing"
	ProcessExtracting  ProcessStatus = "extracting"
	ProcessChunking    ProcessStatus = "chunking"
	ProcessVectorizing ProcessStatus = "vectorizing"
	ProcessCompleted   ProcessStatus = "completed"
	ProcessFailed      ProcessStatus = "failed"
)

// TotalProcessSteps is the number of working stages between pending and completed.
const TotalProcessSteps = 6

// ProgressRange is the inclusive progress band a stage occupies.
type ProgressRange struct {
	Min float64
	Max float64
}

// Range returns the progress band for the status.
// Failed has no band of its own; it keeps whatever progress was reached.
func (s ProcessStatus) Range() ProgressRange {
	switch s {
	case ProcessPending:
		return ProgressRange{0, 0}
	case ProcessParsing:
		return ProgressRange{5, 20}
	case ProcessAnalyzing:
		return ProgressRange{20, 50}
	case ProcessExtracting:
		return ProgressRange{50, 65}
	case ProcessChunking:
		return ProgressRange{65, 80}
	case ProcessVectorizing:
		return ProgressRange{80, 95}
	case ProcessCompleted:
		return ProgressRange{100, 100}
	default:
		return ProgressRange{0, 100}
	}
}

// IsValid returns true if the status is recognised.
func (s ProcessStatus) IsValid() bool {
	switch s {
	case ProcessPending, ProcessParsing, ProcessAnalyzing, ProcessExtracting,
		ProcessChunking, ProcessVectorizing, ProcessCompleted, ProcessFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once a run can no longer change.
func (s ProcessStatus) IsTerminal() bool {
	return s == ProcessCompleted || s == ProcessFailed
}

// String returns the string representation.
func (s ProcessStatus) String() string {
	return string(s)
}

// LogLevel classifies a process log entry.
type LogLevel string

// Process log levels.
const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
	LogSuccess LogLevel = "success"
)

// IsValid returns true if the level is recognised.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogInfo, LogWarning, LogError, LogSuccess:
		return true
	default:
		return false
	}
}

// LogTimeFormat is how log entry times are displayed.
const LogTimeFormat = "2006-01-02 15:04:05"

// LogEntry is one line of a process log.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   LogLevel       `json:"level"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ProcessStats are the statistics collected during a run.
// Nil fields have not been measured yet.
type ProcessStats struct {
	// ParsedTextLength is the extracted text length in characters.
	ParsedTextLength *int

	// SectionsCount is the number of sections stored.
	SectionsCount *int

	// ChunksCount is the number of chunks stored.
	ChunksCount *int

	// AIAnalysisTime is how long the analysis step took, in seconds.
	AIAnalysisTime *float64

	// TotalTime is the wall time of the run, in seconds.
	TotalTime *float64
}

// Merge copies every non-nil field of patch onto s.
func (s *ProcessStats) Merge(patch ProcessStats) {
	if patch.ParsedTextLength != nil {
		s.ParsedTextLength = patch.ParsedTextLength
	}
	if patch.SectionsCount != nil {
		s.SectionsCount = patch.SectionsCount
	}
	if patch.ChunksCount != nil {
		s.ChunksCount = patch.ChunksCount
	}
	if patch.AIAnalysisTime != nil {
		s.AIAnalysisTime = patch.AIAnalysisTime
	}
	if patch.TotalTime != nil {
		s.TotalTime = patch.TotalTime
	}
}

// ProcessLog is the persisted record of one ingestion run.
type ProcessLog struct {
	// ID is the unique identifier for the run.
	ID string

	// DocumentID links to the document being processed.
	DocumentID string

	// Status is the current pipeline stage.
	Status ProcessStatus

	// Progress is the completion percentage, 0 to 100.
	Progress float64

	// CurrentStep is a human-readable name of the running step.
	CurrentStep string

	// TotalSteps is always TotalProcessSteps.
	TotalSteps int

	// CompletedSteps is floor(Progress / 100 * TotalSteps).
	CompletedSteps int

	// Logs is the ordered audit trail of the run.
	Logs []LogEntry

	// ErrorMessage is set when the run failed.
	ErrorMessage string

	// ErrorTraceback is the diagnostic trace of a failure.
	ErrorTraceback string

	// Stats are the statistics collected so far.
	Stats ProcessStats

	// StartedAt is when the run was created.
	StartedAt time.Time

	// UpdatedAt is when the record was last persisted.
	UpdatedAt time.Time

	// CompletedAt is when the run reached a terminal state.
	CompletedAt *time.Time
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p *ProcessLog) Clone() ProcessLog {
	c := *p
	c.Logs = make([]LogEntry, len(p.Logs))
	copy(c.Logs, p.Logs)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
