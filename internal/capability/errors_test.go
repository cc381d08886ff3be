package capability

import (
	"errors"
	"fmt"
	"testing"
)

// TestResolutionErrorMessage verifies the error text format.
func TestResolutionErrorMessage(t *testing.T) {
	err := &ResolutionError{Kind: KindNotifier, Name: "telegram", Reason: "not registered"}
	want := `cannot resolve notifier plugin "telegram": not registered`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

// TestDependencyErrorMessage verifies the hint and cause appear in the text.
func TestDependencyErrorMessage(t *testing.T) {
	cause := errors.New("notify-send not found in PATH")
	err := &DependencyError{
		Kind: KindNotifier,
		Name: "desktop",
		Hint: "install libnotify",
		Err:  cause,
	}
	got := err.Error()
	want := `notifier plugin "desktop": missing dependency: notify-send not found in PATH (install libnotify)`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

// TestConfigErrorMessage verifies both the task-scoped and bare formats.
func TestConfigErrorMessage(t *testing.T) {
	bare := &ConfigError{Field: "url", Reason: "required"}
	if bare.Error() != "config: url: required" {
		t.Errorf("unexpected bare message %q", bare.Error())
	}

	scoped := &ConfigError{Task: "morning-news", Field: "llm", Reason: "required"}
	if scoped.Error() != `config: task "morning-news": llm: required` {
		t.Errorf("unexpected scoped message %q", scoped.Error())
	}
}

// TestMarkTransient verifies transience survives fmt.Errorf wrapping.
func TestMarkTransient(t *testing.T) {
	base := errors.New("connection reset")
	err := MarkTransient(base)

	if !IsTransient(err) {
		t.Error("expected marked error to be transient")
	}
	if IsTransient(base) {
		t.Error("expected unmarked error to not be transient")
	}
	if !errors.Is(err, base) {
		t.Error("expected marked error to unwrap to the original")
	}

	wrapped := fmt.Errorf("fetch failed: %w", err)
	if !IsTransient(wrapped) {
		t.Error("expected transience to survive wrapping")
	}
}

// TestMarkTransientNil verifies nil passes through unchanged.
func TestMarkTransientNil(t *testing.T) {
	if MarkTransient(nil) != nil {
		t.Error("expected nil to stay nil")
	}
	if IsTransient(nil) {
		t.Error("expected nil to not be transient")
	}
}
