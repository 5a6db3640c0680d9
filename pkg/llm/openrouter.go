package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterConfig configures an OpenRouterClient. APIKey and Model must be
// supplied by the caller — no hardcoded defaults, matching the teacher's
// "user selects from free tier models in UI" convention for memory.ExtractorConfig.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	Referer string // optional, sent as HTTP-Referer
	Title   string // optional, sent as X-Title
	Client  *http.Client
}

// OpenRouterClient is a Completer backed by OpenRouter's chat-completions
// endpoint, the net/http equivalent of pkg/batch's callOpenRouter and
// pkg/memory's OpenRouterClient (both //go:build js,wasm and fetch-based).
type OpenRouterClient struct {
	cfg    OpenRouterConfig
	client *http.Client
}

// NewOpenRouterClient builds a client. Returns nil if cfg.APIKey or
// cfg.Model is empty — ProcessMessage-style callers check this the way
// pkg/memory.Extractor checked Extractor.enabled.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenRouterClient{cfg: cfg, client: client}
}

type openRouterMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string          `json:"model"`
	Messages    []openRouterMsg `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete implements Completer. systemPrompt may be empty.
func (c *OpenRouterClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openRouterMsg, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openRouterMsg{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openRouterMsg{Role: "user", Content: userPrompt})

	body, err := json.Marshal(openRouterRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   4096,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal openrouter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build openrouter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: decode openrouter response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm: openrouter error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response from openrouter")
	}
	text := parsed.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("llm: empty content in openrouter response")
	}
	return text, nil
}
