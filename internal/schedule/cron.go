// Package schedule fires tasks on time: cron expressions, fixed intervals
// and one-shot instants, polled from a single goroutine. Per-task overlap is
// prevented through a TaskGuard shared with the other run sources, and a
// weighted semaphore caps how many runs are in flight at once.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpr is a parsed 5-field cron expression:
// minute(0-59) hour(0-23) day-of-month(1-31) month(1-12) day-of-week(0-6,
// 0=Sunday). Times are evaluated in the daemon's local timezone.
type CronExpr struct {
	minute [60]bool
	hour   [24]bool
	dom    [32]bool // index 0 unused
	month  [13]bool // index 0 unused
	dow    [7]bool
}

// ParseCron parses a 5-field cron expression. Each field supports *, single
// values, ranges (N-M), lists (N,M,O) and steps (*/S, N-M/S).
func ParseCron(s string) (*CronExpr, error) {
	fields := strings.Fields(s)
	if len(fields) != 5 {
		return nil, fmt.Errorf("want 5 fields (minute hour dom month dow), got %d", len(fields))
	}

	var e CronExpr
	specs := []struct {
		name     string
		field    string
		min, max int
		set      func(int)
	}{
		{"minute", fields[0], 0, 59, func(v int) { e.minute[v] = true }},
		{"hour", fields[1], 0, 23, func(v int) { e.hour[v] = true }},
		{"day of month", fields[2], 1, 31, func(v int) { e.dom[v] = true }},
		{"month", fields[3], 1, 12, func(v int) { e.month[v] = true }},
		{"day of week", fields[4], 0, 6, func(v int) { e.dow[v] = true }},
	}
	for _, sp := range specs {
		if err := parseCronField(sp.field, sp.min, sp.max, sp.set); err != nil {
			return nil, fmt.Errorf("%s: %w", sp.name, err)
		}
	}
	return &e, nil
}

// parseCronField expands one comma-separated field, calling set for every
// value it covers.
func parseCronField(field string, min, max int, set func(int)) error {
	for _, part := range strings.Split(field, ",") {
		step := 1
		if idx := strings.IndexByte(part, '/'); idx >= 0 {
			n, err := strconv.Atoi(part[idx+1:])
			if err != nil || n <= 0 {
				return fmt.Errorf("bad step in %q", part)
			}
			step = n
			part = part[:idx]
		}

		lo, hi := min, max
		switch {
		case part == "*":

		case strings.Contains(part, "-"):
			bounds := strings.SplitN(part, "-", 2)
			var err error
			if lo, err = strconv.Atoi(bounds[0]); err != nil {
				return fmt.Errorf("bad range start in %q", part)
			}
			if hi, err = strconv.Atoi(bounds[1]); err != nil {
				return fmt.Errorf("bad range end in %q", part)
			}

		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return fmt.Errorf("bad value %q", part)
			}
			if v < min || v > max {
				return fmt.Errorf("value %d out of bounds [%d,%d]", v, min, max)
			}
			if step == 1 {
				set(v)
				continue
			}
			// Value with a step means "from v to the field max".
			lo, hi = v, max
		}

		if lo < min || hi > max || lo > hi {
			return fmt.Errorf("range %d-%d out of bounds [%d,%d]", lo, hi, min, max)
		}
		for v := lo; v <= hi; v += step {
			set(v)
		}
	}
	return nil
}

// Matches reports whether t falls on the expression. Seconds are ignored;
// the expression has minute granularity.
func (e *CronExpr) Matches(t time.Time) bool {
	return e.minute[t.Minute()] &&
		e.hour[t.Hour()] &&
		e.dom[t.Day()] &&
		e.month[int(t.Month())] &&
		e.dow[int(t.Weekday())]
}

// NextAfter returns the first matching minute after t, or the zero time when
// nothing matches within the next 366 days.
func (e *CronExpr) NextAfter(t time.Time) time.Time {
	cur := t.Truncate(time.Minute).Add(time.Minute)
	limit := cur.AddDate(0, 0, 366)

	for cur.Before(limit) {
		// Skip whole months, days and hours that can never match before
		// walking minutes.
		switch {
		case !e.month[int(cur.Month())]:
			cur = time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, cur.Location())
		case !e.dom[cur.Day()] || !e.dow[int(cur.Weekday())]:
			cur = time.Date(cur.Year(), cur.Month(), cur.Day()+1, 0, 0, 0, 0, cur.Location())
		case !e.hour[cur.Hour()]:
			cur = time.Date(cur.Year(), cur.Month(), cur.Day(), cur.Hour()+1, 0, 0, 0, cur.Location())
		case !e.minute[cur.Minute()]:
			cur = cur.Add(time.Minute)
		default:
			return cur
		}
	}
	return time.Time{}
}
