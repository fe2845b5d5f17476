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
	defaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
	anthropicMaxTokens  = 4096
)

type anthropicProvider struct {
	model       string
	url         string
	apiKey      string
	temperature float64
	client      *http.Client
}

func newAnthropic(opts Options, client *http.Client) *anthropicProvider {
	url := opts.BaseURL
	if url == "" {
		url = defaultAnthropicURL
	}
	return &anthropicProvider{
		model:       opts.Model,
		url:         url,
		apiKey:      opts.APIKey,
		temperature: opts.Temperature,
		client:      client,
	}
}

func (p *anthropicProvider) Name() string { return ProviderAnthropic }

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *anthropicProvider) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       p.model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: p.temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: anthropic call: %w", err)
	}
	defer resp.Body.Close()

	var payload anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("llm: decode anthropic response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("llm: anthropic error: %s", payload.Error.Message)
	}

	var b strings.Builder
	for _, block := range payload.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("llm: anthropic returned no text content")
	}
	return strings.TrimSpace(b.String()), nil
}
