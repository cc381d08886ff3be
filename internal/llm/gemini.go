package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aristath/briefd/internal/capability"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiSender summarizes through the Gemini generateContent API.
type GeminiSender struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// geminiRequest puts the prompt in systemInstruction and the content in a
// single user turn.
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGemini creates the gemini sender. Params: api_key (required), model,
// base_url.
func NewGemini(params map[string]any) (*GeminiSender, error) {
	apiKey, err := capability.RequireString(params, "api_key")
	if err != nil {
		return nil, err
	}

	return &GeminiSender{
		apiKey:  apiKey,
		model:   capability.StringParam(params, "model", defaultGeminiModel),
		baseURL: capability.StringParam(params, "base_url", "https://generativelanguage.googleapis.com"),
		client:  newHTTPClient(),
	}, nil
}

// Name identifies the sender in logs and errors.
func (s *GeminiSender) Name() string { return "gemini" }

// Summarize calls generateContent and concatenates the parts of the first
// candidate.
func (s *GeminiSender) Summarize(ctx context.Context, prompt, content string) (string, error) {
	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: prompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: content}}}},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		s.baseURL, url.PathEscape(s.model), url.QueryEscape(s.apiKey))

	var resp geminiResponse
	if err := postJSON(ctx, s.client, "gemini API", endpoint, nil, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		out += part.Text
	}
	if out == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return out, nil
}
