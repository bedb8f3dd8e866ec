// Package mcp provides an MCP (Model Context Protocol) server adapter for
// docstudy. It lets AI assistants ingest documents, follow their progress
// and query them.
package mcp

import "errors"

// Port validation errors.
var (
	ErrMissingIngestService    = errors.New("mcp: ingest service is required")
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
)
