package notify

import (
	"context"
	"net/http"

	"github.com/aristath/briefd/internal/capability"
)

// discordMaxMessage is the API limit on message content length.
const discordMaxMessage = 2000

// DiscordNotifier posts through a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscord creates the discord notifier. Params: webhook_url (required).
func NewDiscord(params map[string]any) (*DiscordNotifier, error) {
	webhookURL, err := capability.RequireString(params, "webhook_url")
	if err != nil {
		return nil, err
	}

	return &DiscordNotifier{webhookURL: webhookURL, client: newHTTPClient()}, nil
}

// Name identifies the notifier in logs and errors.
func (n *DiscordNotifier) Name() string { return "discord" }

// Send posts the message, truncated to the API's content limit.
func (n *DiscordNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	content := message
	if title != "" {
		content = "**" + title + "**\n" + message
	}
	content = truncateRunes(content, discordMaxMessage)

	if err := postJSON(ctx, n.client, "discord webhook", n.webhookURL, map[string]any{"content": content}, nil); err != nil {
		return false, err
	}
	return true, nil
}
