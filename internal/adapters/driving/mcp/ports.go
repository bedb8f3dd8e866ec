package mcp

import (
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Ingest accepts documents and reports progress.
	Ingest driving.IngestService

	// Retrieval searches and answers questions.
	Retrieval driving.RetrievalService

	// Document lists documents and their analyses. Optional.
	Document driving.DocumentService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
