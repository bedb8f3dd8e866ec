package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQueueClosed indicates the ingest worker pool no longer accepts jobs.
	ErrQueueClosed = errors.New("ingest queue closed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Analysis and section extraction fall back to rules without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// Extraction Errors.

	// ErrUnsupportedFormat indicates no extractor is registered for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrParseFailure indicates a file could not be read or decoded.
	ErrParseFailure = errors.New("parse failure")

	// ErrEmptyDocument indicates extracted text is below the minimum length.
	ErrEmptyDocument = errors.New("document has no usable text")

	// ErrFileNotFound indicates the file to ingest does not exist.
	ErrFileNotFound = errors.New("file not found")

	// Embedding Errors.

	// ErrEmptyInput indicates a single embedding request had no text.
	ErrEmptyInput = errors.New("empty input")

	// ErrNoValidInput indicates every text in an embedding batch was empty.
	ErrNoValidInput = errors.New("no valid input")

	// ErrModelUnavailable indicates the embedding model could not be loaded.
	// The load failure is cached; later calls return the same error.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// Vector Index Errors.

	// ErrCardinalityMismatch indicates records and vectors differ in length.
	ErrCardinalityMismatch = errors.New("records and vectors differ in length")

	// ErrNoValidRecords indicates every record in an add was invalid.
	ErrNoValidRecords = errors.New("no valid records")

	// LLM Errors.

	// ErrGeneration indicates the LLM call failed or returned nothing.
	ErrGeneration = errors.New("generation failed")

	// ErrAnalysisParse indicates an LLM response was not a valid analysis payload.
	ErrAnalysisParse = errors.New("analysis parse error")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
