// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RepoFetcher: Lists and fetches repository content (GitHub adapter)
//   - SourceRecordStore: Ingested record persistence
//   - CommitStore: Summarized commit persistence
//   - ProjectStore: Project-to-repository mapping persistence
//   - EmbeddingService: Generates vector embeddings; queries cannot run
//     without it
//   - LLMService: Text generation for answers and diff summaries
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
