package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

const defaultAzureAPIVersion = "2024-06-01"

// AzureSender summarizes through an Azure OpenAI deployment. The wire format
// is the chat-completions one; routing and auth differ from openai: the
// deployment name replaces the model field and the key travels in an api-key
// header.
type AzureSender struct {
	apiKey     string
	endpoint   string
	deployment string
	apiVersion string
	maxTokens  int
	tools      []capability.ToolSpec
	client     *http.Client
}

// NewAzure creates the azure sender. Params: api_key, endpoint, deployment
// (all required), api_version, max_tokens.
func NewAzure(params map[string]any) (*AzureSender, error) {
	apiKey, err := capability.RequireString(params, "api_key")
	if err != nil {
		return nil, err
	}
	endpoint, err := capability.RequireString(params, "endpoint")
	if err != nil {
		return nil, err
	}
	deployment, err := capability.RequireString(params, "deployment")
	if err != nil {
		return nil, err
	}

	return &AzureSender{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiVersion: capability.StringParam(params, "api_version", defaultAzureAPIVersion),
		maxTokens:  capability.IntParam(params, "max_tokens", 0),
		tools:      toolsFromParams(params),
		client:     newHTTPClient(),
	}, nil
}

// Name identifies the sender in logs and errors.
func (s *AzureSender) Name() string { return "azure" }

// Summarize sends the chat request to the deployment endpoint.
func (s *AzureSender) Summarize(ctx context.Context, prompt, content string) (string, error) {
	req := chatRequest{
		Messages:  chatMessages(prompt, content),
		MaxTokens: s.maxTokens,
		Tools:     chatTools(s.tools),
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		s.endpoint, url.PathEscape(s.deployment), url.QueryEscape(s.apiVersion))
	headers := map[string]string{"api-key": s.apiKey}

	var resp chatResponse
	if err := postJSON(ctx, s.client, "azure API", endpoint, headers, req, &resp); err != nil {
		return "", err
	}
	return chatText(resp, "azure")
}
