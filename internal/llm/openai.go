package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o"
)

type openAIClient struct {
	model      string
	endpoint   string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

type openAIRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	apiKey, err := resolveAPIKey(cfg.APIKeyEnv, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	c := &openAIClient{
		model:      cfg.Model,
		endpoint:   cfg.Endpoint,
		apiKey:     apiKey,
		maxTokens:  cfg.MaxTokens,
		httpClient: cfg.HTTPClient,
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	if c.endpoint == "" {
		c.endpoint = defaultOpenAIEndpoint
	}
	return c, nil
}

// Generate sends one user message at temperature 0 and returns the first
// choice's content.
func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := openAIRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openAIMessage{
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var decoded openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("openai: failed to decode response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return text, nil
}
