package capability

import (
	"errors"
	"fmt"
)

// ResolutionError reports a capability that could not be resolved: an
// unknown kind or name, a duplicate registration, or a constructor that
// returned a value of the wrong type.
type ResolutionError struct {
	Kind   Kind
	Name   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s plugin %q: %s", e.Kind, e.Name, e.Reason)
}

// DependencyError reports an external requirement a plugin needs but the
// host does not provide. Hint names what to install or configure. It fails
// the plugin's construction, never the process.
type DependencyError struct {
	Kind Kind
	Name string
	Hint string
	Err  error
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("%s plugin %q: missing dependency", e.Kind, e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *DependencyError) Unwrap() error { return e.Err }

// ConfigError reports an invalid or missing configuration field. Task is
// empty when the error originates inside a plugin constructor that does not
// know which task it serves.
type ConfigError struct {
	Task   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config: task %q: %s: %s", e.Task, e.Field, e.Reason)
}

// transientError marks a failure as transient network trouble.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient wraps err so IsTransient reports true for it. Plugins mark
// timeouts, connection failures and 5xx responses this way; everything else
// is left unwrapped.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with MarkTransient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
