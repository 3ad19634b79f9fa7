package services

import (
	"context"
	"strings"
	"sync"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Embeddings are deterministic: each text maps to the vector registered in
// vectors, falling back to defaultVec.
type mockEmbeddingService struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	defaultVec []float32
	embedErr   error
	calls      int
}

func newMockEmbedding() *mockEmbeddingService {
	return &mockEmbeddingService{
		vectors:    make(map[string][]float32),
		defaultVec: []float32{1, 0, 0},
	}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return m.defaultVec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.defaultVec) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embedding" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu           sync.Mutex
	reply        string
	streamTokens []string
	generateErr  error
	streamErr    error
	failures     int // fail this many Generate calls before succeeding
	calls        int
	lastMessages []domain.ChatMessage
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}}, opts)
}

func (m *mockLLMService) Chat(_ context.Context, messages []domain.ChatMessage, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMessages = messages
	if m.failures > 0 {
		m.failures--
		return "", m.generateErr
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	if m.reply != "" {
		return m.reply, nil
	}
	return strings.Join(m.streamTokens, ""), nil
}

func (m *mockLLMService) ChatStream(
	_ context.Context, messages []domain.ChatMessage, _ driven.GenerateOptions,
) (<-chan string, <-chan error) {
	m.mu.Lock()
	m.calls++
	m.lastMessages = messages
	tokens := m.streamTokens
	streamErr := m.streamErr
	m.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, token := range tokens {
			out <- token
		}
		if streamErr != nil {
			errs <- streamErr
		}
	}()
	return out, errs
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockRepoFetcher implements driven.RepoFetcher for testing. Directories
// map a path to its entries; files map a path to content.
type mockRepoFetcher struct {
	dirs    map[string][]driven.RepoEntry
	files   map[string]string
	commits []driven.CommitInfo
	diffs   map[string]string

	listErr    error
	contentErr error
	diffErr    error
}

func newMockFetcher() *mockRepoFetcher {
	return &mockRepoFetcher{
		dirs:  make(map[string][]driven.RepoEntry),
		files: make(map[string]string),
		diffs: make(map[string]string),
	}
}

func (m *mockRepoFetcher) ListDirectory(_ context.Context, _ driven.RepoRef, path string) ([]driven.RepoEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.dirs[path], nil
}

func (m *mockRepoFetcher) FileContent(_ context.Context, _ driven.RepoRef, path string) (string, error) {
	if m.contentErr != nil {
		return "", m.contentErr
	}
	return m.files[path], nil
}

func (m *mockRepoFetcher) ListCommits(_ context.Context, _ driven.RepoRef, limit int) ([]driven.CommitInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit < len(m.commits) {
		return m.commits[:limit], nil
	}
	return m.commits, nil
}

func (m *mockRepoFetcher) CommitDiff(_ context.Context, _ driven.RepoRef, sha string) (string, error) {
	if m.diffErr != nil {
		return "", m.diffErr
	}
	return m.diffs[sha], nil
}
