// Package content implements the built-in content providers: small
// fetchers that turn an upstream source into text for summarization.
package content

import (
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

// httpTimeout bounds every provider request.
const httpTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 2 * 1024 * 1024

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// getJSON fetches endpoint and decodes the JSON response into v. label
// names the upstream in errors so URLs carrying keys never reach logs.
// Transport failures and retryable statuses come back marked transient.
func getJSON(ctx context.Context, client *http.Client, label, endpoint string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", label, err)
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		// Strip the URL that url.Error carries
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return capability.MarkTransient(fmt.Errorf("%s: %w", label, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%s returned HTTP %d", label, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return capability.MarkTransient(err)
		}
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return capability.MarkTransient(fmt.Errorf("%s: reading response: %w", label, err))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decoding response: %w", label, err)
	}

	return nil
}
