package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog &amp; News</title>
    <item>
      <title>First &amp; Foremost</title>
      <link>https://example.com/first</link>
      <guid>post-1</guid>
      <description>&lt;p&gt;Hello   &lt;b&gt;world&lt;/b&gt;&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://example.com/second</link>
      <description>Short one</description>
    </item>
  </channel>
</rss>`

const sampleAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <entry>
    <id>urn:uuid:1</id>
    <title>Atom Entry</title>
    <link rel="self" href="https://example.com/self"/>
    <link rel="alternate" href="https://example.com/entry"/>
    <summary>An atom summary</summary>
    <updated>2006-01-02T15:04:05Z</updated>
  </entry>
</feed>`

// TestParseRSS verifies RSS 2.0 decoding, entity unescaping, and HTML
// stripping.
func TestParseRSS(t *testing.T) {
	feed, err := Parse([]byte(sampleRSS))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if feed.Title != "Example Blog & News" {
		t.Errorf("expected unescaped title, got %q", feed.Title)
	}
	if len(feed.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(feed.Entries))
	}

	first := feed.Entries[0]
	if first.ID != "post-1" {
		t.Errorf("expected guid as ID, got %q", first.ID)
	}
	if first.Title != "First & Foremost" {
		t.Errorf("expected unescaped entry title, got %q", first.Title)
	}
	if first.Summary != "Hello world" {
		t.Errorf("expected stripped summary 'Hello world', got %q", first.Summary)
	}
	if first.Published != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("unexpected published %q", first.Published)
	}

	// No guid falls back to the link
	if feed.Entries[1].ID != "https://example.com/second" {
		t.Errorf("expected link as ID, got %q", feed.Entries[1].ID)
	}
}

// TestParseAtom verifies Atom decoding and alternate-link selection.
func TestParseAtom(t *testing.T) {
	feed, err := Parse([]byte(sampleAtom))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if feed.Title != "Example Atom" {
		t.Errorf("expected title 'Example Atom', got %q", feed.Title)
	}
	if len(feed.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(feed.Entries))
	}

	entry := feed.Entries[0]
	if entry.ID != "urn:uuid:1" {
		t.Errorf("expected atom id as ID, got %q", entry.ID)
	}
	if entry.Link != "https://example.com/entry" {
		t.Errorf("expected the alternate link, got %q", entry.Link)
	}
	if entry.Summary != "An atom summary" {
		t.Errorf("unexpected summary %q", entry.Summary)
	}
}

// TestParseEmptyFeed verifies a well-formed feed with no items is not an
// error.
func TestParseEmptyFeed(t *testing.T) {
	empty := `<?xml version="1.0"?><rss version="2.0"><channel><title>Quiet</title></channel></rss>`
	feed, err := Parse([]byte(empty))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(feed.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(feed.Entries))
	}
}

// TestParseUnrecognized verifies non-feed bodies are rejected.
func TestParseUnrecognized(t *testing.T) {
	for _, body := range []string{"not xml at all", `{"json": true}`, `<html><body/></html>`} {
		if _, err := Parse([]byte(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

// TestTruncateLongSummary verifies summaries are cut at the rune boundary.
func TestTruncateLongSummary(t *testing.T) {
	long := strings.Repeat("é", 300)
	rss := `<rss version="2.0"><channel><title>t</title><item><title>x</title><link>l</link><description>` + long + `</description></item></channel></rss>`

	feed, err := Parse([]byte(rss))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	summary := feed.Entries[0].Summary
	if !strings.HasSuffix(summary, "...") {
		t.Errorf("expected ellipsis suffix, got %q", summary)
	}
	if got := len([]rune(summary)); got != 203 {
		t.Errorf("expected 203 runes, got %d", got)
	}
}

// TestFetch verifies the HTTP path end to end against a local server.
func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	feed, err := Fetch(context.Background(), client, srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(feed.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(feed.Entries))
	}
}

// TestFetchStatusHandling verifies which HTTP failures count as transient.
func TestFetchStatusHandling(t *testing.T) {
	cases := []struct {
		status        int
		wantTransient bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusTooManyRequests, true},
		{http.StatusNotFound, false},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		client := &http.Client{Timeout: 5 * time.Second}
		_, err := Fetch(context.Background(), client, srv.URL)
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := capability.IsTransient(err); got != tc.wantTransient {
			t.Errorf("status %d: expected transient=%v, got %v (%v)", tc.status, tc.wantTransient, got, err)
		}
	}
}

// TestFetchConnectionRefused verifies transport failures are transient.
func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := &http.Client{Timeout: time.Second}
	_, err := Fetch(context.Background(), client, srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	if !capability.IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}
