// Package gemini provides embedding and LLM service adapters using the
// Google Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/logger"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout = 120 * time.Second

	// Free-tier pacing: 10 requests per rolling minute.
	requestsPerMinute = 10

	// rateLimitRetryDelay is how long to back off after an HTTP 429
	// before retrying the same request.
	rateLimitRetryDelay = 15 * time.Second

	// maxRateLimitRetries bounds 429 retries per request so a stuck
	// quota can never loop forever.
	maxRateLimitRetries = 64
)

// client is the shared rate-limited HTTP layer under both adapters. One
// client (and so one limiter) should be shared between the embedding and
// LLM services so they draw from the same quota.
type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter

	// sleep pauses between 429 retries; injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func newClient(apiKey, baseURL string, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
		sleep:   sleepCtx,
	}
}

// NewServices creates an embedding service and an LLM service sharing one
// rate-limited client, so both draw from the same request quota. The
// embedding config's connection settings (key, base URL, timeout) apply to
// both; only the models differ.
func NewServices(embedCfg EmbeddingConfig, llmCfg LLMConfig) (*EmbeddingService, *LLMService, error) {
	embedding, err := NewEmbeddingService(embedCfg)
	if err != nil {
		return nil, nil, err
	}
	llmCfg.APIKey = embedCfg.APIKey
	llm, err := NewLLMService(llmCfg)
	if err != nil {
		return nil, nil, err
	}
	llm.client = embedding.client
	return embedding, llm, nil
}

// apiError is the Gemini API error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// post sends one JSON request to path, pacing through the limiter and
// retrying on 429 after a fixed delay. The response body is returned raw
// for the caller to decode.
func (c *client) post(ctx context.Context, path string, reqBody any) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, status, err := c.send(ctx, path, jsonBody)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests {
			logger.Warn("Gemini rate limited, retrying in %s (attempt %d)", rateLimitRetryDelay, attempt+1)
			if err := c.sleep(ctx, rateLimitRetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		if status != http.StatusOK {
			return nil, statusError(status, body)
		}
		return body, nil
	}

	return nil, fmt.Errorf("%w: gemini retries exhausted", domain.ErrRateLimited)
}

// stream opens a server-sent-events response to path. The caller owns the
// returned body and must close it. 429 responses are retried like post.
func (c *client) stream(ctx context.Context, path string, reqBody any) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := c.newRequest(ctx, path, jsonBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			logger.Warn("Gemini rate limited, retrying in %s (attempt %d)", rateLimitRetryDelay, attempt+1)
			if err := c.sleep(ctx, rateLimitRetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, statusError(resp.StatusCode, body)
		}
		return resp.Body, nil
	}

	return nil, fmt.Errorf("%w: gemini retries exhausted", domain.ErrRateLimited)
}

func (c *client) send(ctx context.Context, path string, jsonBody []byte) ([]byte, int, error) {
	req, err := c.newRequest(ctx, path, jsonBody)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *client) newRequest(ctx context.Context, path string, jsonBody []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	return req, nil
}

// get issues an unpaced GET, used only by Ping.
func (c *client) get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, body)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return fmt.Errorf("%w: gemini: %s", domain.ErrUnauthorized, apiErr.Error.Message)
		}
		return fmt.Errorf("gemini error (status %d): %s", status, apiErr.Error.Message)
	}
	return fmt.Errorf("gemini error (status %d): %s", status, string(body))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
