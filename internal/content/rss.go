package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/feed"
)

const defaultRSSPrompt = "Summarize these feed entries into a short digest, one line per story."

// RSSProvider fetches the most recent entries of one feed.
type RSSProvider struct {
	url    string
	limit  int
	prompt string
	client *http.Client
}

// NewRSSContent builds a feed provider from plugin params.
// Required: url. Optional: limit, prompt.
func NewRSSContent(params map[string]any) (*RSSProvider, error) {
	feedURL, err := capability.RequireString(params, "url")
	if err != nil {
		return nil, err
	}

	return &RSSProvider{
		url:    feedURL,
		limit:  capability.IntParam(params, "limit", 5),
		prompt: capability.StringParam(params, "prompt", defaultRSSPrompt),
		client: newHTTPClient(),
	}, nil
}

func (p *RSSProvider) Prompt() string { return p.prompt }

// Fetch returns the newest entries as a numbered list.
func (p *RSSProvider) Fetch(ctx context.Context) (string, error) {
	f, err := feed.Fetch(ctx, p.client, p.url)
	if err != nil {
		return "", err
	}

	if len(f.Entries) == 0 {
		return "", fmt.Errorf("feed has no entries")
	}

	var b strings.Builder
	if f.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", f.Title)
	}
	for i, e := range f.Entries {
		if i >= p.limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Title)
		if e.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", e.Summary)
		}
		if e.Link != "" {
			fmt.Fprintf(&b, "   %s\n", e.Link)
		}
	}

	return b.String(), nil
}
