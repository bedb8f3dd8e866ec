// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"time"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// PollTick asks the progress view to fetch the run again.
type PollTick struct {
	At time.Time
}

// ProgressLoaded carries a fetched run back to the model.
type ProgressLoaded struct {
	Log *domain.ProcessLog
	Err error
}

// Finished is sent once the run reaches a terminal status.
type Finished struct {
	Log *domain.ProcessLog
}

// ErrorOccurred is sent when an error happens outside a fetch.
type ErrorOccurred struct {
	Err error
}
