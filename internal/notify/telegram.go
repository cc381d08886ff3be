package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/aristath/briefd/internal/capability"
)

// TelegramNotifier delivers through a Telegram bot.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

// NewTelegram creates the telegram notifier. Params: token, chat_id (both
// required), base_url.
func NewTelegram(params map[string]any) (*TelegramNotifier, error) {
	token, err := capability.RequireString(params, "token")
	if err != nil {
		return nil, err
	}
	chatID, err := capability.RequireString(params, "chat_id")
	if err != nil {
		return nil, err
	}

	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: capability.StringParam(params, "base_url", "https://api.telegram.org"),
		client:  newHTTPClient(),
	}, nil
}

// Name identifies the notifier in logs and errors.
func (n *TelegramNotifier) Name() string { return "telegram" }

// Send posts to the bot sendMessage endpoint, the title as a bold first
// line. Telegram reports acceptance in the body, so delivered follows its
// ok flag.
func (n *TelegramNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	// HTML parse mode makes the title bold; everything user-visible must be
	// entity-escaped for it.
	text := html.EscapeString(message)
	if title != "" {
		text = "<b>" + html.EscapeString(title) + "</b>\n\n" + text
	}

	payload := map[string]any{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	var resp struct {
		OK bool `json:"ok"`
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	if err := postJSON(ctx, n.client, "telegram API", endpoint, payload, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}
