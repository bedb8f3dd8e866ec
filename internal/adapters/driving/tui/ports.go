// Package tui provides the terminal progress view for docstudy.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI reads from.
type Ports struct {
	// Ingest reports run progress.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
