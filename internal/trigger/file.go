package trigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

// FileWatchTrigger fires when a file's modification time or size changes
// between polls. A file that does not exist yet is a valid baseline; its
// first appearance counts as a change.
type FileWatchTrigger struct {
	path string
	poll time.Duration

	mtime time.Time
	size  int64
	data  map[string]any
}

// NewFileWatch builds a file watch trigger. Params: "path" (required) and an
// optional "poll_seconds" cadence.
func NewFileWatch(params map[string]any) (*FileWatchTrigger, error) {
	path, err := capability.RequireString(params, "path")
	if err != nil {
		return nil, err
	}

	t := &FileWatchTrigger{path: path}
	if secs := capability.IntParam(params, "poll_seconds", 0); secs > 0 {
		t.poll = time.Duration(secs) * time.Second
	}
	return t, nil
}

// Setup records the file's current state as the baseline, so pre-existing
// content never fires.
func (t *FileWatchTrigger) Setup(ctx context.Context) error {
	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.mtime, t.size = time.Time{}, 0
			return nil
		}
		return fmt.Errorf("stat %s: %w", t.path, err)
	}
	t.mtime, t.size = info.ModTime(), info.Size()
	return nil
}

func (t *FileWatchTrigger) Check(ctx context.Context) (bool, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Deletion resets the baseline but is not a fire; the next
			// appearance is.
			t.mtime, t.size = time.Time{}, 0
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", t.path, err)
	}

	if info.ModTime().Equal(t.mtime) && info.Size() == t.size {
		return false, nil
	}

	t.mtime, t.size = info.ModTime(), info.Size()
	t.data = map[string]any{
		"path":        t.path,
		"size":        info.Size(),
		"modified_at": info.ModTime().Format(time.RFC3339),
	}
	return true, nil
}

func (t *FileWatchTrigger) TriggerData() map[string]any { return t.data }

func (t *FileWatchTrigger) Teardown() error { return nil }

func (t *FileWatchTrigger) Interval() time.Duration { return t.poll }
