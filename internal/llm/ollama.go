package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/retry"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

// OllamaSender summarizes through a local Ollama server using the official
// client library.
type OllamaSender struct {
	model     string
	keepAlive *api.Duration
	client    *api.Client
}

// NewOllama creates the ollama sender. Params: model (required), host,
// keep_alive (a duration string, how long the server keeps the model
// loaded).
func NewOllama(params map[string]any) (*OllamaSender, error) {
	model, err := capability.RequireString(params, "model")
	if err != nil {
		return nil, err
	}

	host := capability.StringParam(params, "host", defaultOllamaHost)
	base, err := url.Parse(host)
	if err != nil {
		return nil, &capability.ConfigError{Field: "host", Reason: fmt.Sprintf("invalid URL: %v", err)}
	}

	s := &OllamaSender{
		model:  model,
		client: api.NewClient(base, newHTTPClient()),
	}

	if ka := capability.StringParam(params, "keep_alive", ""); ka != "" {
		d, err := time.ParseDuration(ka)
		if err != nil {
			return nil, &capability.ConfigError{Field: "keep_alive", Reason: fmt.Sprintf("invalid duration: %v", err)}
		}
		s.keepAlive = &api.Duration{Duration: d}
	}

	return s, nil
}

// Name identifies the sender in logs and errors.
func (s *OllamaSender) Name() string { return "ollama" }

// Summarize runs a non-streaming chat against the local server. The client
// library still delivers the reply through the callback, once.
func (s *OllamaSender) Summarize(ctx context.Context, prompt, content string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:     s.model,
		Messages:  []api.Message{{Role: "system", Content: prompt}, {Role: "user", Content: content}},
		Stream:    &stream,
		KeepAlive: s.keepAlive,
	}

	var out strings.Builder
	err := s.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		// A 4xx from the server (unknown model, bad request) will not fix
		// itself; everything else is the server being down or busy.
		var statusErr api.StatusError
		if errors.As(err, &statusErr) &&
			statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
			statusErr.StatusCode != http.StatusTooManyRequests {
			return "", retry.Permanent(fmt.Errorf("ollama: %w", err))
		}
		return "", capability.MarkTransient(fmt.Errorf("ollama chat error: %w", err))
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("ollama returned no content")
	}
	return out.String(), nil
}
