package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

// IntervalTrigger fires on every poll. It turns a trigger-driven task into a
// plain periodic one, which is mostly useful for pipelines that want the
// fired_at payload.
type IntervalTrigger struct {
	every time.Duration
	data  map[string]any
}

// NewInterval builds an interval trigger. The optional "every" param is a Go
// duration; without it the manager's default poll cadence applies.
func NewInterval(params map[string]any) (*IntervalTrigger, error) {
	t := &IntervalTrigger{}

	if raw := capability.StringParam(params, "every", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, &capability.ConfigError{Field: "every", Reason: fmt.Sprintf("not a positive duration: %q", raw)}
		}
		t.every = d
	}
	return t, nil
}

func (t *IntervalTrigger) Setup(ctx context.Context) error { return nil }

func (t *IntervalTrigger) Check(ctx context.Context) (bool, error) {
	t.data = map[string]any{"fired_at": time.Now().Format(time.RFC3339)}
	return true, nil
}

func (t *IntervalTrigger) TriggerData() map[string]any { return t.data }

func (t *IntervalTrigger) Teardown() error { return nil }

func (t *IntervalTrigger) Interval() time.Duration { return t.every }
