// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Code analysis, summarization, and similarity ranking all happen here,
// in process; the driven ports supply repository content, embeddings,
// generation, and persistence.
package services
