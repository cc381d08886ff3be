package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/feed"
)

const defaultPrompt = "Summarize these new feed entries into a short digest, one line per story."

// Provider fetches feed entries. When the run was started by the pack's
// trigger it formats exactly the entries named in the trigger payload;
// otherwise it falls back to the newest entries, like the plain rss content
// plugin.
type Provider struct {
	url    string
	limit  int
	prompt string
	wanted map[string]bool
	client *http.Client
}

// newProvider builds the pack provider. Required: url. Optional: limit,
// prompt. The "trigger_data" param, when present, names the entries to
// fetch.
func newProvider(params map[string]any) (*Provider, error) {
	feedURL, err := capability.RequireString(params, "url")
	if err != nil {
		return nil, err
	}

	return &Provider{
		url:    feedURL,
		limit:  capability.IntParam(params, "limit", 5),
		prompt: capability.StringParam(params, "prompt", defaultPrompt),
		wanted: wantedIDs(params),
		client: newHTTPClient(),
	}, nil
}

// wantedIDs extracts the entry IDs from a trigger payload. The payload is
// built in-process by the pack trigger but may have been round-tripped
// through storage, so both slice shapes are accepted.
func wantedIDs(params map[string]any) map[string]bool {
	payload, ok := params["trigger_data"].(map[string]any)
	if !ok {
		return nil
	}

	ids := make(map[string]bool)
	add := func(entry map[string]any) {
		if id, ok := entry["id"].(string); ok && id != "" {
			ids[id] = true
		}
	}
	switch entries := payload["new_entries"].(type) {
	case []map[string]any:
		for _, e := range entries {
			add(e)
		}
	case []any:
		for _, raw := range entries {
			if e, ok := raw.(map[string]any); ok {
				add(e)
			}
		}
	}

	if len(ids) == 0 {
		return nil
	}
	return ids
}

func (p *Provider) Prompt() string { return p.prompt }

// Fetch returns the selected entries as a numbered list, in feed order.
func (p *Provider) Fetch(ctx context.Context) (string, error) {
	f, err := feed.Fetch(ctx, p.client, p.url)
	if err != nil {
		return "", err
	}

	entries := f.Entries
	if p.wanted != nil {
		selected := entries[:0:0]
		for _, e := range entries {
			if p.wanted[e.ID] {
				selected = append(selected, e)
			}
		}
		if len(selected) == 0 {
			return "", fmt.Errorf("triggering entries are no longer in the feed")
		}
		entries = selected
	} else {
		if len(entries) == 0 {
			return "", fmt.Errorf("feed has no entries")
		}
		if len(entries) > p.limit {
			entries = entries[:p.limit]
		}
	}

	var b strings.Builder
	if f.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", f.Title)
	}
	for i, e := range entries {
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
