package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Surfaced to the caller as terminal; never retried.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	// Call sites retry internally; this surfaces only when retries are
	// exhausted on bounded paths.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates an embedding could not be produced.
	// Ingestion treats this as a soft failure and skips the file; a query
	// cannot proceed without an embedding and fails hard.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStreamAborted indicates a generation stream failed mid-flight.
	// Tokens already forwarded are not retracted; the answer is incomplete,
	// not absent.
	ErrStreamAborted = errors.New("stream aborted")

	// ErrUnauthorized indicates the caller cannot access the project or
	// the upstream API rejected the credentials. Never retried.
	ErrUnauthorized = errors.New("unauthorized")
)
