package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aristath/briefd/internal/capability"
)

const (
	defaultAnthropicModel  = "claude-3-5-haiku-latest"
	defaultAnthropicTokens = 1024
	anthropicVersion       = "2023-06-01"
)

// AnthropicSender summarizes through the Anthropic messages API.
type AnthropicSender struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// anthropicRequest carries the prompt in the dedicated system field.
type anthropicRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

// anthropicResponse returns content as typed blocks.
// Example: {"content": [{"type": "text", "text": "response"}]}
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropic creates the anthropic sender. Params: api_key (required),
// model, base_url, max_tokens.
func NewAnthropic(params map[string]any) (*AnthropicSender, error) {
	apiKey, err := capability.RequireString(params, "api_key")
	if err != nil {
		return nil, err
	}

	return &AnthropicSender{
		apiKey:    apiKey,
		model:     capability.StringParam(params, "model", defaultAnthropicModel),
		baseURL:   capability.StringParam(params, "base_url", "https://api.anthropic.com"),
		maxTokens: capability.IntParam(params, "max_tokens", defaultAnthropicTokens),
		client:    newHTTPClient(),
	}, nil
}

// Name identifies the sender in logs and errors.
func (s *AnthropicSender) Name() string { return "anthropic" }

// Summarize sends content as a single user message and concatenates the text
// blocks of the reply.
func (s *AnthropicSender) Summarize(ctx context.Context, prompt, content string) (string, error) {
	req := anthropicRequest{
		Model:     s.model,
		System:    prompt,
		MaxTokens: s.maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: content}},
	}

	headers := map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, s.client, "anthropic API", s.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}

	// Extract text content from the content blocks
	var out string
	for _, block := range resp.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return out, nil
}
