package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel    = "claude-sonnet-4-5"
	anthropicVersion         = "2023-06-01"
)

type anthropicClient struct {
	model      string
	endpoint   string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (r *anthropicResponse) firstText() string {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	apiKey, err := resolveAPIKey(cfg.APIKeyEnv, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}

	c := &anthropicClient{
		model:      cfg.Model,
		endpoint:   cfg.Endpoint,
		apiKey:     apiKey,
		maxTokens:  cfg.MaxTokens,
		httpClient: cfg.HTTPClient,
	}
	if c.model == "" {
		c.model = defaultAnthropicModel
	}
	if c.endpoint == "" {
		c.endpoint = defaultAnthropicEndpoint
	}
	return c, nil
}

// Generate sends one user message at temperature 0 and returns the first
// text block of the response.
func (c *anthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("anthropic: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("anthropic: failed to decode response: %w", err)
	}

	text := strings.TrimSpace(decoded.firstText())
	if text == "" {
		return "", fmt.Errorf("anthropic: empty completion")
	}
	return text, nil
}

// readErrorBody returns a short snippet of an error response for
// diagnostics without risking a huge message.
func readErrorBody(r io.Reader) string {
	const maxErrBody = 512
	b, _ := io.ReadAll(io.LimitReader(r, maxErrBody))
	return strings.TrimSpace(string(b))
}
