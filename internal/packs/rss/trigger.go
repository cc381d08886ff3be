package rss

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/feed"
)

// Trigger polls a feed and fires when entries appear that were not in the
// previous poll. Everything present at setup is the baseline and never
// fires.
type Trigger struct {
	url    string
	poll   time.Duration
	client *http.Client

	baselined bool
	seen      map[string]bool
	data      map[string]any
}

// newTrigger builds the pack trigger. Required: url. Optional:
// poll_seconds.
func newTrigger(params map[string]any) (*Trigger, error) {
	feedURL, err := capability.RequireString(params, "url")
	if err != nil {
		return nil, err
	}

	t := &Trigger{url: feedURL, client: newHTTPClient()}
	if secs := capability.IntParam(params, "poll_seconds", 0); secs > 0 {
		t.poll = time.Duration(secs) * time.Second
	}
	return t, nil
}

// Setup records the feed's current entries as the baseline. A transient
// fetch failure is tolerated; the first successful poll baselines instead,
// without firing. A non-transient failure (a 404, say) means the feed URL
// is wrong and disables the watcher.
func (t *Trigger) Setup(ctx context.Context) error {
	f, err := feed.Fetch(ctx, t.client, t.url)
	if err != nil {
		if capability.IsTransient(err) {
			return nil
		}
		return err
	}
	t.baseline(f)
	return nil
}

func (t *Trigger) baseline(f *feed.Feed) {
	t.seen = make(map[string]bool, len(f.Entries))
	for _, e := range f.Entries {
		t.seen[e.ID] = true
	}
	t.baselined = true
}

// Check fetches the feed and reports whether unseen entries appeared,
// collecting them into the trigger payload. The seen set is rebuilt from
// the current feed each poll, so it stays bounded by the feed size.
func (t *Trigger) Check(ctx context.Context) (bool, error) {
	f, err := feed.Fetch(ctx, t.client, t.url)
	if err != nil {
		return false, err
	}

	if !t.baselined {
		t.baseline(f)
		return false, nil
	}

	var fresh []map[string]any
	current := make(map[string]bool, len(f.Entries))
	for _, e := range f.Entries {
		current[e.ID] = true
		if !t.seen[e.ID] {
			fresh = append(fresh, map[string]any{
				"id":    e.ID,
				"title": e.Title,
				"link":  e.Link,
			})
		}
	}
	t.seen = current

	if len(fresh) == 0 {
		return false, nil
	}
	t.data = map[string]any{
		"new_entries": fresh,
		"feed_title":  f.Title,
		"count":       len(fresh),
	}
	return true, nil
}

func (t *Trigger) TriggerData() map[string]any { return t.data }

func (t *Trigger) Teardown() error { return nil }

func (t *Trigger) Interval() time.Duration { return t.poll }
