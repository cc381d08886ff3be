package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aristath/briefd/internal/capability"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAISender summarizes through the OpenAI chat-completions API.
type OpenAISender struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	hasTemp     bool
	tools       []capability.ToolSpec
	client      *http.Client
}

// chatRequest is the chat-completions request body, shared with the Azure
// sender. Example: {"model": "gpt-4o-mini", "messages": [{"role": "system",
// "content": "..."}, {"role": "user", "content": "..."}]}
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatTool wraps a tool spec in the function-call envelope the API expects.
type chatTool struct {
	Type     string              `json:"type"`
	Function capability.ToolSpec `json:"function"`
}

// chatResponse is the subset of the chat-completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAI creates the openai sender. Params: api_key (required), model,
// base_url, max_tokens, temperature.
func NewOpenAI(params map[string]any) (*OpenAISender, error) {
	apiKey, err := capability.RequireString(params, "api_key")
	if err != nil {
		return nil, err
	}

	s := &OpenAISender{
		apiKey:    apiKey,
		model:     capability.StringParam(params, "model", defaultOpenAIModel),
		baseURL:   capability.StringParam(params, "base_url", "https://api.openai.com"),
		maxTokens: capability.IntParam(params, "max_tokens", 0),
		tools:     toolsFromParams(params),
		client:    newHTTPClient(),
	}

	// Only send temperature when configured; the API default is model-specific.
	if _, ok := params["temperature"]; ok {
		s.temperature = capability.FloatParam(params, "temperature", 0)
		s.hasTemp = true
	}

	return s, nil
}

// Name identifies the sender in logs and errors.
func (s *OpenAISender) Name() string { return "openai" }

// Summarize sends prompt and content as a system+user chat and returns the
// first choice's text.
func (s *OpenAISender) Summarize(ctx context.Context, prompt, content string) (string, error) {
	req := chatRequest{
		Model:     s.model,
		Messages:  chatMessages(prompt, content),
		MaxTokens: s.maxTokens,
		Tools:     chatTools(s.tools),
	}
	if s.hasTemp {
		req.Temperature = &s.temperature
	}

	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}

	var resp chatResponse
	if err := postJSON(ctx, s.client, "openai API", s.baseURL+"/v1/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	return chatText(resp, "openai")
}

// chatMessages builds the system+user message pair the chat senders share.
func chatMessages(prompt, content string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: content},
	}
}

// chatTools wraps tool specs for the wire; nil in, nil out.
func chatTools(specs []capability.ToolSpec) []chatTool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]chatTool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, chatTool{Type: "function", Function: spec})
	}
	return tools
}

// chatText extracts the first choice from a chat-completions response.
func chatText(resp chatResponse, provider string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", provider)
	}
	return resp.Choices[0].Message.Content, nil
}
