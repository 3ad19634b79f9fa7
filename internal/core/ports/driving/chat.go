package driving

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// ChatService answers questions about a project with retrieved context and
// per-project conversational state.
type ChatService interface {
	// Answer streams a grounded answer. Token chunks arrive on the first
	// channel as generated; after generation completes, a final chunk of
	// the form domain.SourcesDelimiter + <JSON> carries the citations.
	// The token channel is closed when the stream ends; the error channel
	// then carries at most one error. Tokens delivered before a mid-stream
	// failure are not retracted.
	Answer(ctx context.Context, projectID, query string, limit int) (<-chan string, <-chan error)

	// AnswerSync returns a complete answer with its sources in one call.
	AnswerSync(ctx context.Context, projectID, query string) (*domain.Answer, error)

	// ClearChat drops the project's conversation history. Returns whether
	// a session existed.
	ClearChat(projectID string) bool
}
