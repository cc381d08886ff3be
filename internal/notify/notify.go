// Package notify implements the delivery side of a task: each notifier
// takes the final message plus an optional title and pushes it somewhere a
// human will see it.
//
// Send returns (delivered, err). False with a nil error is a soft refusal:
// the transport worked but the receiver declined the message. Transport
// errors come back marked transient so the executor's retry wrapper knows
// the attempt is worth repeating.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

const httpTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read. Notifier APIs
// answer with tiny acknowledgements.
const maxBodyBytes = 1 << 20

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// postJSON sends a JSON payload and optionally decodes the JSON response
// into v (nil v drains the body). Any 2xx status counts as success; 429 and
// 5xx failures are transient.
func postJSON(ctx context.Context, client *http.Client, label, endpoint string, payload, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// Strip the URL that url.Error carries; webhook URLs and bot tokens
		// are secrets.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return capability.MarkTransient(fmt.Errorf("%s request error: %w", label, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := fmt.Errorf("%s returned HTTP %d", label, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return capability.MarkTransient(apiErr)
		}
		return apiErr
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
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

// truncateRunes caps s at max runes, reserving room for an ellipsis marker.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
