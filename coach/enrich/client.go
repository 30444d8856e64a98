// Package enrich asks an OpenAI-compatible chat-completions endpoint for
// extra coaching tips built from the numeric signal metrics. It is optional:
// every failure degrades to an empty result.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// Heading of the appended section
const Heading = "Additional feedback (AI)"

// ErrDisabled is returned when base URL, key or model is missing
var ErrDisabled = errors.New("enrichment disabled")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint. It is
// disabled unless base URL, API key and model are all configured.
type Client struct {
	config     config.EnrichmentConfig
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a client. The HTTP timeout is the configured one.
func NewClient(cfg config.EnrichmentConfig) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger: logging.WithFields(logging.Fields{
			"component": "enrichment_client",
			"model":     cfg.Model,
		}),
	}
}

// Enabled reports whether the client has everything it needs to call out
func (c *Client) Enabled() bool {
	return c.config.Enabled()
}

// Complete sends one system+user exchange and returns the trimmed reply
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	payload := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
		MaxTokens:   c.config.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("enrich: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("enrich: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrich: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("enrich: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("enrich: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("enrich: no choices in response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Advise builds the prompts for payload and returns the model's tips, or ""
// when enrichment is disabled or fails
func (c *Client) Advise(ctx context.Context, payload Payload) string {
	if !c.Enabled() {
		return ""
	}

	logger := c.logger.WithContext(ctx)
	system, user, err := BuildPrompts(payload)
	if err != nil {
		logger.Debug("Failed to build enrichment prompts", logging.Fields{"error": err.Error()})
		return ""
	}

	text, err := c.Complete(ctx, system, user)
	if err != nil {
		logger.Debug("Enrichment call failed", logging.Fields{"error": err.Error()})
		return ""
	}
	return text
}

// Section renders text under the enrichment heading, or "" for empty text
func Section(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return fmt.Sprintf("\n---\n\n## %s\n\n%s\n", Heading, text)
}
