package driven

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// LLMService provides language model operations for answer generation and
// diff summarization.
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation and returns the full reply.
	Chat(ctx context.Context, messages []domain.ChatMessage, opts GenerateOptions) (string, error)

	// ChatStream conducts a multi-turn conversation, delivering the reply
	// as token chunks on the returned channel. The token channel is closed
	// when the stream ends; the error channel then carries at most one
	// error. Chunks already delivered before a mid-stream failure stand.
	ChatStream(ctx context.Context, messages []domain.ChatMessage, opts GenerateOptions) (<-chan string, <-chan error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is the nucleus-sampling cutoff. Zero means provider default.
	TopP float64
}
