package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultLLMModel is the Gemini generation model used when the config
// names none.
const DefaultLLMModel = "gemini-2.0-flash"

// LLMConfig holds configuration for the Gemini LLM service.
type LLMConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public Gemini endpoint).
	BaseURL string

	// Model is the generation model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s). Applies per stream
	// too, bounding the total stream duration.
	Timeout time.Duration
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client *client
	model  string
}

// generateRequest is the Gemini :generateContent request format.
type generateRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type requestContent struct {
	Role  string        `json:"role,omitempty"`
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
}

// generateResponse is the Gemini :generateContent response format, also
// used for each SSE frame of :streamGenerateContent.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}

	return &LLMService{
		client: newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}, nil
}

// Generate produces a text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: prompt},
	}
	return s.Chat(ctx, messages, opts)
}

// Chat conducts a multi-turn conversation and returns the full reply.
func (s *LLMService) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.GenerateOptions) (string, error) {
	body, err := s.client.post(ctx, "/models/"+s.model+":generateContent", buildRequest(messages, opts))
	if err != nil {
		return "", err
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	var reply strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		reply.WriteString(part.Text)
	}
	return reply.String(), nil
}

// ChatStream conducts a multi-turn conversation over server-sent events,
// delivering the reply as token chunks.
func (s *LLMService) ChatStream(
	ctx context.Context, messages []domain.ChatMessage, opts driven.GenerateOptions,
) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		body, err := s.client.stream(
			ctx,
			"/models/"+s.model+":streamGenerateContent?alt=sse",
			buildRequest(messages, opts),
		)
		if err != nil {
			errs <- err
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			data, ok := strings.CutPrefix(line, "data: ")
			if !ok || data == "[DONE]" {
				continue
			}

			var frame generateResponse
			if err := json.Unmarshal([]byte(data), &frame); err != nil {
				errs <- fmt.Errorf("decode stream frame: %w", err)
				return
			}

			for _, candidate := range frame.Candidates {
				for _, part := range candidate.Content.Parts {
					if part.Text == "" {
						continue
					}
					select {
					case out <- part.Text:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read stream: %w", err)
		}
	}()

	return out, errs
}

// buildRequest converts domain messages into the Gemini wire format.
// Gemini accepts only the user and model roles, which is exactly what the
// domain defines.
func buildRequest(messages []domain.ChatMessage, opts driven.GenerateOptions) generateRequest {
	contents := make([]requestContent, len(messages))
	for i, msg := range messages {
		contents[i] = requestContent{
			Role:  msg.Role,
			Parts: []requestPart{{Text: msg.Content}},
		}
	}

	req := generateRequest{Contents: contents}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || opts.TopP > 0 {
		req.GenerationConfig = &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
		}
	}
	return req
}

// ModelName returns the name of the generation model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model's metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.get(ctx, "/models/"+s.model)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
