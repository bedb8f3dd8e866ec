// Package domain defines the core business entities for docstudy.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested study document with its analysis
//   - Section: An outline entry extracted from a document
//   - Chunk: A paragraph-aligned unit of text used for retrieval
//   - ProcessLog: The persisted record of one ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
