package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

// BarkNotifier pushes to an iOS device through a Bark server.
type BarkNotifier struct {
	server    string
	deviceKey string
	client    *http.Client
}

// NewBark creates the bark notifier. Params: device_key (required), server.
func NewBark(params map[string]any) (*BarkNotifier, error) {
	deviceKey, err := capability.RequireString(params, "device_key")
	if err != nil {
		return nil, err
	}

	return &BarkNotifier{
		server:    strings.TrimRight(capability.StringParam(params, "server", "https://api.day.app"), "/"),
		deviceKey: deviceKey,
		client:    newHTTPClient(),
	}, nil
}

// Name identifies the notifier in logs and errors.
func (n *BarkNotifier) Name() string { return "bark" }

// Send issues the Bark GET with title and body as escaped path segments.
// The server acknowledges with {"code": 200} when the push was accepted.
func (n *BarkNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	endpoint := n.server + "/" + url.PathEscape(n.deviceKey)
	if title != "" {
		endpoint += "/" + url.PathEscape(title)
	}
	endpoint += "/" + url.PathEscape(message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("bark: building request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return false, capability.MarkTransient(fmt.Errorf("bark request error: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("bark returned HTTP %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return false, capability.MarkTransient(apiErr)
		}
		return false, apiErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, capability.MarkTransient(fmt.Errorf("bark: reading response: %w", err))
	}

	var ack struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(data, &ack); err != nil {
		return false, fmt.Errorf("bark: decoding response: %w", err)
	}
	return ack.Code == http.StatusOK, nil
}
