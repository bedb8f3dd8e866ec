// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor / ExtractorRegistry: Turns files into plain text
//   - PostProcessorPipeline: Splits text into chunks
//   - DocumentStore: Document, section and chunk persistence
//   - ProcessLogStore: Ingestion run persistence
//   - SessionProvider: Per-job persistence scopes
//   - ConfigStore: Application configuration
//   - PromptStore: LLM prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, analysis and section extraction use rule-based fallbacks.
//   - EmbeddingGateway / EmbeddingService: Without it, vectorisation is skipped with a warning.
//   - VectorIndex: Per-document vector collections for retrieval.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
