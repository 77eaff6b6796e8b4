// Package completion calls the chat-completions API. Payload construction
// happens upstream in internal/payload; this package owns marshaling, auth
// headers, retries, and error mapping.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"medchat/internal/core"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config holds client configuration.
type Config struct {
	// APIKey authenticates against the completion API. Required.
	APIKey string

	// BaseURL is the API base URL (default: the OpenAI endpoint).
	BaseURL string

	// Retry configuration
	MaxRetries     int           // maximum retry attempts (default: 2)
	InitialBackoff time.Duration // initial backoff duration (default: 1s)
	MaxBackoff     time.Duration // maximum backoff duration (default: 15s)
	BackoffFactor  float64       // backoff multiplier (default: 2.0)
}

// Client is an HTTP client for the chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
}

// Result is the outcome of one completion call: the generated text plus the
// model that actually served it.
type Result struct {
	Text  string
	Model string
}

// New creates a completion client. A missing API key returns nil with no
// error: the caller is expected to degrade to a user-visible fallback
// message rather than fail the whole request.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 15 * time.Second
	}
	if cfg.BackoffFactor == 0 {
		cfg.BackoffFactor = 2.0
	}
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		config:     cfg,
	}
}

// NewWithHTTPClient creates a completion client with a custom HTTP client,
// letting tests point it at an httptest server.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) *Client {
	c := New(cfg)
	if c != nil && httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// chatCompletionsRequest is the wire shape of POST /chat/completions.
type chatCompletionsRequest struct {
	Model       string                `json:"model"`
	Messages    []core.PayloadMessage `json:"messages"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Temperature float64               `json:"temperature,omitempty"`
}

type chatCompletionsResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// CreateCompletion sends the assembled payload and returns the generated
// text plus the model that served it.
func (c *Client) CreateCompletion(ctx context.Context, payload core.ChatPayload, model string, maxTokens int, temperature float64) (*Result, error) {
	body := chatCompletionsRequest{
		Model:       model,
		Messages:    payload.Messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	resp, err := c.doWithRetries(ctx, body)
	if err != nil {
		return nil, err
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, core.NewUpstreamError("failed to unmarshal completion response", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, core.NewUpstreamError("completion API returned no choices", nil)
	}

	usedModel := parsed.Model
	if usedModel == "" {
		usedModel = model
	}
	return &Result{Text: parsed.Choices[0].Message.Content, Model: usedModel}, nil
}

// doWithRetries executes the request, retrying 429s and 5xx responses with
// exponential backoff, and returns the raw success body.
func (c *Client) doWithRetries(ctx context.Context, body any) ([]byte, error) {
	var lastErr error
	maxAttempts := c.config.MaxRetries + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		status, respBody, err := c.doRequest(ctx, body)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr = upstreamStatusError(status, respBody)
			continue
		}
		if status != http.StatusOK {
			return nil, upstreamStatusError(status, respBody)
		}
		return respBody, nil
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, body any) (int, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, core.NewUpstreamError("failed to marshal completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return 0, nil, core.NewUpstreamError("failed to build completion request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, core.NewUpstreamError("failed to send completion request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, core.NewUpstreamError("failed to read completion response", err)
	}
	return resp.StatusCode, respBody, nil
}

// backoff computes the delay before the given attempt, capped at MaxBackoff.
func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffFactor, float64(attempt-1)))
	if d > c.config.MaxBackoff {
		d = c.config.MaxBackoff
	}
	return d
}

func upstreamStatusError(status int, body []byte) *core.AppError {
	msg := fmt.Sprintf("completion API returned status %d", status)
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, parsed.Error.Message)
	}
	return core.NewUpstreamError(msg, nil)
}
