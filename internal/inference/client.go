// Package inference is the transport to an OpenAI-compatible chat-completions
// endpoint. Both the resolver and the enricher share one client; they differ
// only in model and prompt.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dErrors "reglens/pkg/domain-errors"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Client calls the provider with deterministic decoding settings: temperature
// is pinned to zero and output length is bounded, so repeated calls with
// identical input are maximally reproducible.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// New constructs a Client. The timeout is the transport-level ceiling for a
// single completion call; the pipeline itself enforces none (collaborators
// fail closed rather than hang).
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type wireRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the request and returns the first choice's text content.
// Transport and HTTP-level failures surface as unavailable domain errors;
// content-level garbage is the caller's problem (see the parse package).
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: 0,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "inference provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount for the log line only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WarnContext(ctx, "inference provider returned non-success status",
			"status", resp.StatusCode,
			"model", req.Model,
			"body", string(snippet),
		)
		return "", dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("inference provider returned status %d", resp.StatusCode))
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "decode inference provider response")
	}
	if len(wire.Choices) == 0 {
		return "", dErrors.New(dErrors.CodeUnavailable, "inference provider returned no choices")
	}

	c.logger.DebugContext(ctx, "completion finished",
		"model", req.Model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return wire.Choices[0].Message.Content, nil
}
