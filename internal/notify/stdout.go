package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// StdoutNotifier writes the message to standard output. It exists for first
// runs, smoke tests, and piping briefd into other tools.
type StdoutNotifier struct {
	out io.Writer
}

// NewStdout creates the stdout notifier. It takes no params.
func NewStdout(params map[string]any) (*StdoutNotifier, error) {
	return &StdoutNotifier{out: os.Stdout}, nil
}

// Name identifies the notifier in logs and errors.
func (n *StdoutNotifier) Name() string { return "stdout" }

// Send prints the title as a banner line, then the message.
func (n *StdoutNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	if title != "" {
		if _, err := fmt.Fprintf(n.out, "=== %s ===\n", title); err != nil {
			return false, err
		}
	}
	if _, err := fmt.Fprintln(n.out, message); err != nil {
		return false, err
	}
	return true, nil
}
