package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/metrics"
	"github.com/wanderwise-ai/orchestrator/internal/tracing"
)

// HTTPDoer narrows *http.Client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client speaks the OpenAI-compatible chat-completions wire format used by
// Groq, Together and OpenAI itself. Provider choice is a config concern:
// base URL plus model name, resolved once at startup.
type Client struct {
	cfg    Config
	retry  RetryPolicy
	http   HTTPDoer
	logger *zap.Logger
}

// NewClient builds a chat-completions client with the given retry policy.
func NewClient(cfg Config, retry RetryPolicy, logger *zap.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:    cfg,
		retry:  retry,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// WithHTTPClient overrides the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(doer HTTPDoer) *Client {
	c.http = doer
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate implements Provider. Transient failures are retried per the
// configured policy; after the last attempt the caller sees
// ErrModelUnavailable wrapping the final cause.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var content string
	attempt := 0
	start := time.Now()
	err = c.retry.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			metrics.ModelRetries.Inc()
		}
		var callErr error
		content, callErr = c.call(ctx, body)
		if callErr != nil {
			c.logger.Warn("Model call failed",
				zap.Int("attempt", attempt),
				zap.String("model", c.cfg.Model),
				zap.Error(callErr),
			)
		}
		return callErr
	})

	metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelCalls.WithLabelValues(c.cfg.Model, "error").Inc()
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	metrics.ModelCalls.WithLabelValues(c.cfg.Model, "ok").Inc()
	return content, nil
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var parsed chatResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	metrics.ModelTokensUsed.Observe(float64(parsed.Usage.TotalTokens))
	return parsed.Choices[0].Message.Content, nil
}
