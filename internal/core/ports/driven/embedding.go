package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations wrap an external embedding model behind rate limiting and
// retry; the vector dimension is fixed per model and must match the width
// the record store persists.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// A rate-limited upstream is retried internally; only exhausted retries
	// or non-throttling failures surface as errors.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// More efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
