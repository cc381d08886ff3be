// Package feed fetches and parses RSS 2.0 and Atom feeds into a
// normalized form.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

// maxFeedBytes caps how much of a feed body is read.
const maxFeedBytes = 2 * 1024 * 1024

// Entry is one item from a feed, normalized across RSS and Atom.
type Entry struct {
	ID        string // guid (RSS) or id (Atom), falling back to the link
	Title     string
	Link      string
	Published string // as written in the feed
	Summary   string // plain text, truncated
}

// Feed is a parsed RSS 2.0 or Atom feed.
type Feed struct {
	Title   string
	Entries []Entry
}

// RSS 2.0 structures.
type rssXML struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string       `xml:"title"`
		Items []rssItemXML `xml:"item"`
	} `xml:"channel"`
}

type rssItemXML struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Atom structures.
type atomXML struct {
	XMLName xml.Name       `xml:"feed"`
	Title   string         `xml:"title"`
	Entries []atomEntryXML `xml:"entry"`
}

type atomEntryXML struct {
	ID      string        `xml:"id"`
	Title   string        `xml:"title"`
	Links   []atomLinkXML `xml:"link"`
	Summary string        `xml:"summary"`
	Content string        `xml:"content"`
	Updated string        `xml:"updated"`
}

type atomLinkXML struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Fetch retrieves and parses the feed at feedURL.
// Transport failures and retryable HTTP statuses come back marked transient.
func Fetch(ctx context.Context, client *http.Client, feedURL string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, capability.MarkTransient(fmt.Errorf("fetch feed error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, capability.MarkTransient(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, capability.MarkTransient(fmt.Errorf("read feed error: %w", err))
	}

	return Parse(body)
}

// Parse decodes a feed body, trying RSS 2.0 first and falling back to Atom.
// An empty but well-formed feed parses to zero entries.
func Parse(body []byte) (*Feed, error) {
	// Try RSS 2.0 first
	var rss rssXML
	if err := xml.Unmarshal(body, &rss); err == nil {
		feed := &Feed{Title: html.UnescapeString(rss.Channel.Title)}
		for _, it := range rss.Channel.Items {
			id := it.GUID
			if id == "" {
				id = it.Link
			}
			feed.Entries = append(feed.Entries, Entry{
				ID:        id,
				Title:     html.UnescapeString(it.Title),
				Link:      it.Link,
				Published: it.PubDate,
				Summary:   truncateText(stripHTMLTags(html.UnescapeString(it.Description)), 200),
			})
		}
		return feed, nil
	}

	// Try Atom
	var atom atomXML
	if err := xml.Unmarshal(body, &atom); err == nil {
		feed := &Feed{Title: html.UnescapeString(atom.Title)}
		for _, e := range atom.Entries {
			link := ""
			for _, l := range e.Links {
				if l.Rel == "" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			if link == "" && len(e.Links) > 0 {
				link = e.Links[0].Href
			}
			summary := e.Summary
			if summary == "" {
				summary = e.Content
			}
			id := e.ID
			if id == "" {
				id = link
			}
			feed.Entries = append(feed.Entries, Entry{
				ID:        id,
				Title:     html.UnescapeString(e.Title),
				Link:      link,
				Published: e.Updated,
				Summary:   truncateText(stripHTMLTags(html.UnescapeString(summary)), 200),
			})
		}
		return feed, nil
	}

	return nil, fmt.Errorf("unrecognized feed format")
}

// stripHTMLTags removes markup and collapses whitespace.
func stripHTMLTags(s string) string {
	var result strings.Builder
	inTag := false
	for _, c := range s {
		if c == '<' {
			inTag = true
		} else if c == '>' {
			inTag = false
		} else if !inTag {
			result.WriteRune(c)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}

// truncateText truncates a string to maxLen runes.
func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
