// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion path is IngestService -> WorkerPool -> IngestPipeline,
// with the Analyzer and ProcessTracker doing the per-step work.
// RetrievalService answers questions over the stored vectors.
package services
