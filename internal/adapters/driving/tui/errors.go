package tui

import "errors"

// ErrMissingIngestService is returned when the ingest service is not provided.
var ErrMissingIngestService = errors.New("tui: ingest service is required")

// ErrMissingDocumentID is returned when there is no document to watch.
var ErrMissingDocumentID = errors.New("tui: document ID is required")
