// Package llm implements the senders that turn fetched content into a
// summary by asking a language model provider.
//
// Every sender satisfies capability.Sender: Name() plus Summarize(ctx,
// prompt, content). The hosted providers are plain HTTP APIs; ollama goes
// through the official client library. Errors come back classified for the
// retry layer: HTTP 429 and 5xx are transient, other non-2xx responses are
// permanent (a bad key or model name will not improve on retry).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/retry"
)

// httpTimeout bounds one provider round trip. Model calls are slow on long
// inputs, so this is much looser than the content-provider timeout.
const httpTimeout = 2 * time.Minute

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 4 << 20

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// postJSON sends a JSON payload and decodes the JSON response into v.
func postJSON(ctx context.Context, client *http.Client, label, endpoint string, headers map[string]string, payload, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		// Strip the URL that url.Error carries; endpoints embed credentials
		// in some providers' query strings.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return capability.MarkTransient(fmt.Errorf("%s request error: %w", label, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("%s returned HTTP %d%s", label, resp.StatusCode, errorSnippet(resp.Body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return capability.MarkTransient(apiErr)
		}
		return retry.Permanent(apiErr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return capability.MarkTransient(fmt.Errorf("%s: reading response: %w", label, err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decoding response: %w", label, err)
	}
	return nil
}

// errorSnippet pulls a short piece of the error body for diagnostics.
// Provider 4xx responses carry the actual reason there.
func errorSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return ""
	}
	return ": " + s
}

// toolsFromParams pulls the tool specs the executor injects under "tools".
// Absent or foreign values yield nil.
func toolsFromParams(params map[string]any) []capability.ToolSpec {
	if params == nil {
		return nil
	}
	specs, _ := params["tools"].([]capability.ToolSpec)
	return specs
}
