package notify

import (
	"context"
	"net/http"

	"github.com/aristath/briefd/internal/capability"
)

// SlackNotifier posts through a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates the slack notifier. Params: webhook_url (required).
func NewSlack(params map[string]any) (*SlackNotifier, error) {
	webhookURL, err := capability.RequireString(params, "webhook_url")
	if err != nil {
		return nil, err
	}

	return &SlackNotifier{webhookURL: webhookURL, client: newHTTPClient()}, nil
}

// Name identifies the notifier in logs and errors.
func (n *SlackNotifier) Name() string { return "slack" }

// Send posts the message, the title as a bold mrkdwn first line.
func (n *SlackNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	text := message
	if title != "" {
		text = "*" + title + "*\n" + message
	}

	if err := postJSON(ctx, n.client, "slack webhook", n.webhookURL, map[string]any{"text": text}, nil); err != nil {
		return false, err
	}
	return true, nil
}
