package notify

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/aristath/briefd/internal/capability"
)

// DesktopNotifier shows a notification on the local desktop through
// notify-send.
type DesktopNotifier struct {
	urgency string
}

// DesktopAvailable reports whether notify-send exists on this host. It is
// registered as the availability check for the desktop notifier, so a
// headless machine fails the load with a remediation hint instead of
// failing every Send.
func DesktopAvailable() error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return &capability.DependencyError{
			Kind: capability.KindNotifier,
			Name: "desktop",
			Hint: "install notify-send (package libnotify or libnotify-bin)",
			Err:  err,
		}
	}
	return nil
}

// NewDesktop creates the desktop notifier. Params: urgency (low, normal,
// critical).
func NewDesktop(params map[string]any) (*DesktopNotifier, error) {
	return &DesktopNotifier{
		urgency: capability.StringParam(params, "urgency", "normal"),
	}, nil
}

// Name identifies the notifier in logs and errors.
func (n *DesktopNotifier) Name() string { return "desktop" }

// Send shells out to notify-send.
func (n *DesktopNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	if title == "" {
		title = "briefd"
	}

	cmd := exec.CommandContext(ctx, "notify-send", "-u", n.urgency, title, message)
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("notify-send failed: %w", err)
	}
	return true, nil
}
