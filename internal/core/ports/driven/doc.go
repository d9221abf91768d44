// Package driven defines the interfaces the core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor / ExtractorRegistry: turns a file into normalized text (C1)
//   - PostProcessor / PostProcessorPipeline: turns text into chunks (C3)
//   - EmbeddingProvider: turns text into vectors (C4)
//   - VectorIndex: durable nearest-neighbor store (C5)
//   - LLMProvider: chat completion (C6)
//   - DocumentRegistry: document bookkeeping (C11)
//   - ConfigurationStore: provider-selection persistence (C10)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
