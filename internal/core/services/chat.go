package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driving"
	"github.com/codeatlas-ai/codeatlas/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Generation parameters for conversational answers.
const (
	answerMaxTokens   = 3048
	answerTemperature = 0.4
	answerTopP        = 0.8

	// contextExcerptLength bounds each source's contribution to the prompt.
	contextExcerptLength = 2500
)

// ChatService is the conversational RAG orchestrator: it combines retrieved
// context with per-project conversation history and streams grounded
// answers with citations.
type ChatService struct {
	search   driving.SearchService
	llm      driven.LLMService
	sessions *SessionCache
}

// NewChatService creates a chat service. The session cache is injected so
// its bounds and lifetime are owned by the composition root, not by this
// package.
func NewChatService(search driving.SearchService, llm driven.LLMService, sessions *SessionCache) *ChatService {
	return &ChatService{
		search:   search,
		llm:      llm,
		sessions: sessions,
	}
}

// genOptions returns the fixed generation parameters for answers.
func genOptions() driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
		TopP:        answerTopP,
	}
}

// Answer implements driving.ChatService. Token chunks are forwarded as they
// arrive; after the stream completes, a final chunk carries the citation
// payload behind domain.SourcesDelimiter. A mid-stream failure surfaces on
// the error channel and leaves no trace in the session history, but tokens
// already forwarded are not retracted.
func (s *ChatService) Answer(
	ctx context.Context, projectID, query string, limit int,
) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if s.llm == nil {
			errs <- domain.ErrLLMUnavailable
			return
		}

		results, err := s.search.Search(ctx, projectID, query, limit)
		if err != nil {
			errs <- fmt.Errorf("retrieve context: %w", err)
			return
		}
		logger.Debug("Answering with %d sources", len(results))

		session := s.sessions.GetOrCreate(projectID)
		messages := session.Begin(contextualQuery(results, query))

		tokens, llmErrs := s.llm.ChatStream(ctx, messages, genOptions())

		var reply strings.Builder
		for token := range tokens {
			reply.WriteString(token)
			select {
			case out <- token:
			case <-ctx.Done():
				session.Abort()
				errs <- ctx.Err()
				return
			}
		}

		if err := <-llmErrs; err != nil {
			session.Abort()
			errs <- fmt.Errorf("%w: %w", domain.ErrStreamAborted, err)
			return
		}
		session.Commit(reply.String())

		frame, err := sourcesFrame(results)
		if err != nil {
			errs <- err
			return
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			errs <- ctx.Err()
		}
	}()

	return out, errs
}

// AnswerSync implements driving.ChatService. It shares the session state
// machine with Answer but waits for the complete reply.
func (s *ChatService) AnswerSync(ctx context.Context, projectID, query string) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	results, err := s.search.Search(ctx, projectID, query, DefaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(results) == 0 {
		return &domain.Answer{
			Answer:  "No relevant code found for your query.",
			Sources: []domain.AnswerSource{},
		}, nil
	}

	session := s.sessions.GetOrCreate(projectID)
	messages := session.Begin(contextualQuery(results, query))

	reply, err := s.llm.Chat(ctx, messages, genOptions())
	if err != nil {
		session.Abort()
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	session.Commit(reply)

	sources := make([]domain.AnswerSource, len(results))
	for i, r := range results {
		sources[i] = domain.AnswerSource{
			FileName:   r.Record.FilePath,
			Similarity: r.Similarity,
		}
	}

	return &domain.Answer{Answer: reply, Sources: sources}, nil
}

// ClearChat implements driving.ChatService. Clearing always succeeds
// locally; history is ephemeral by design.
func (s *ChatService) ClearChat(projectID string) bool {
	return s.sessions.Clear(projectID)
}

// contextualQuery prefixes the retrieved sources onto the user's literal
// question. Each source contributes a bounded excerpt labeled by file name.
func contextualQuery(results []domain.QueryResult, query string) string {
	var ctxText strings.Builder
	n := 0
	for _, r := range results {
		if r.Record.Content == "" {
			continue
		}
		n++
		excerpt := truncate(r.Record.Content, contextExcerptLength)
		fmt.Fprintf(&ctxText, "Context %d from file %q:\n%s\n\n", n, r.Record.FilePath, excerpt)
	}

	if ctxText.Len() == 0 {
		return fmt.Sprintf("My question is about the codebase: %s", query)
	}
	return fmt.Sprintf(
		"Based on the following code context:\n%s\nMy question is: %s",
		ctxText.String(), query,
	)
}

// sourcesFrame renders the terminal citation chunk.
func sourcesFrame(results []domain.QueryResult) (string, error) {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		segments := r.Segments
		if segments == nil {
			segments = []domain.RelevantSegment{}
		}
		sources[i] = domain.Source{
			FileName:         r.Record.FilePath,
			Similarity:       r.Similarity,
			RelevantSegments: segments,
		}
	}

	payload, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("marshal sources: %w", err)
	}
	return domain.SourcesDelimiter + string(payload), nil
}
