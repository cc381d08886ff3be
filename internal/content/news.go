package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

const defaultNewsPrompt = "Summarize these headlines into a short briefing. Group related stories and keep it under 200 words."

// newsResponse mirrors the fields read from the headlines endpoint.
type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// NewsProvider fetches top headlines from NewsAPI.
type NewsProvider struct {
	apiKey  string
	topic   string
	country string
	limit   int
	prompt  string
	baseURL string
	client  *http.Client
}

// NewNews builds a news provider from plugin params.
// Required: api_key. Optional: topic, country, limit, prompt, base_url.
func NewNews(params map[string]any) (*NewsProvider, error) {
	apiKey, err := capability.RequireString(params, "api_key")
	if err != nil {
		return nil, err
	}

	topic := capability.StringParam(params, "topic", "")
	country := capability.StringParam(params, "country", "")
	if topic == "" && country == "" {
		// The headlines endpoint needs at least one filter
		country = "us"
	}

	return &NewsProvider{
		apiKey:  apiKey,
		topic:   topic,
		country: country,
		limit:   capability.IntParam(params, "limit", 10),
		prompt:  capability.StringParam(params, "prompt", defaultNewsPrompt),
		baseURL: capability.StringParam(params, "base_url", "https://newsapi.org"),
		client:  newHTTPClient(),
	}, nil
}

func (p *NewsProvider) Prompt() string { return p.prompt }

// Fetch returns current headlines as a numbered list with sources.
func (p *NewsProvider) Fetch(ctx context.Context) (string, error) {
	q := url.Values{}
	if p.topic != "" {
		q.Set("q", p.topic)
	}
	if p.country != "" {
		q.Set("country", p.country)
	}
	q.Set("pageSize", strconv.Itoa(p.limit))

	endpoint := fmt.Sprintf("%s/v2/top-headlines?%s", p.baseURL, q.Encode())

	var res newsResponse
	headers := map[string]string{"X-Api-Key": p.apiKey}
	if err := getJSON(ctx, p.client, "news API", endpoint, headers, &res); err != nil {
		return "", err
	}

	if len(res.Articles) == 0 {
		return "", fmt.Errorf("news API returned no articles")
	}

	var b strings.Builder
	for i, a := range res.Articles {
		if i >= p.limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, a.Title, a.Source.Name)
		if a.Description != "" {
			fmt.Fprintf(&b, "   %s\n", a.Description)
		}
	}

	return b.String(), nil
}
