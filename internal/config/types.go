package config

import (
	"time"
)

// PluginRef names a registered plugin and carries its parameters.
type PluginRef struct {
	Plugin string         `yaml:"plugin"`           // Registered plugin name (e.g., "telegram", "openai")
	Params map[string]any `yaml:"params,omitempty"` // Passed to the plugin constructor
}

// Schedule describes when a task runs. Exactly one field is set.
type Schedule struct {
	Cron  string `yaml:"cron,omitempty"`  // 5-field cron expression (minute hour dom month dow)
	Every string `yaml:"every,omitempty"` // Go duration, e.g. "15m"
	At    string `yaml:"at,omitempty"`    // RFC3339 instant for a one-shot run
}

// Interval returns the parsed every duration.
func (s *Schedule) Interval() (time.Duration, error) {
	return time.ParseDuration(s.Every)
}

// RunAt returns the parsed one-shot instant.
func (s *Schedule) RunAt() (time.Time, error) {
	return time.Parse(time.RFC3339, s.At)
}

// TriggerSpec binds a task to a condition-polling trigger.
// On pack tasks an empty Type selects the pack's own trigger.
type TriggerSpec struct {
	Type   string         `yaml:"type,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Retry overrides the default retry policy for one task.
// Zero fields inherit the default.
type Retry struct {
	MaxAttempts   int     `yaml:"max_attempts,omitempty"`   // Total attempts including the first
	BackoffFactor float64 `yaml:"backoff_factor,omitempty"` // Multiplier between waits
}

// Task is one configured pipeline: where content comes from, how it is
// summarized, what happens to the summary, and when the task runs.
type Task struct {
	Name           string         `yaml:"name"`
	Pack           string         `yaml:"pack,omitempty"`    // Pack supplying content (and trigger) when set
	Params         map[string]any `yaml:"params,omitempty"`  // Pack parameters
	Content        *PluginRef     `yaml:"content,omitempty"` // Direct tasks only
	LLM            *PluginRef     `yaml:"llm"`
	Actions        []PluginRef    `yaml:"actions,omitempty"`
	Notifiers      []PluginRef    `yaml:"notifiers,omitempty"`
	ErrorNotifiers []PluginRef    `yaml:"error_notifiers,omitempty"`
	ShouldNotify   *bool          `yaml:"should_notify,omitempty"` // Unset means true
	Schedule       *Schedule      `yaml:"schedule,omitempty"`
	Trigger        *TriggerSpec   `yaml:"trigger,omitempty"`
	Retry          *Retry         `yaml:"retry,omitempty"`
}

// NotifyEnabled reports whether the task's summary should be delivered.
func (t *Task) NotifyEnabled() bool {
	return t.ShouldNotify == nil || *t.ShouldNotify
}

// Defaults holds daemon-wide knobs that individual tasks can override.
type Defaults struct {
	MaxConcurrentTasks int   `yaml:"max_concurrent_tasks,omitempty"` // Scheduler concurrency cap
	TriggerPollSeconds int   `yaml:"trigger_poll_seconds,omitempty"` // Poll interval for triggers without their own
	Retry              Retry `yaml:"retry,omitempty"`
}

// History configures run persistence.
// Path is a SQLite file, ":memory:" for an in-memory store, or empty to
// disable recording.
type History struct {
	Path string `yaml:"path,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Defaults Defaults `yaml:"defaults,omitempty"`
	History  History  `yaml:"history,omitempty"`
	Tasks    []Task   `yaml:"tasks"`
}

// TaskByName returns the named task.
func (c *Config) TaskByName(name string) (Task, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// ScheduledTasks returns the tasks driven by the scheduler.
func (c *Config) ScheduledTasks() []Task {
	var out []Task
	for _, t := range c.Tasks {
		if t.Schedule != nil {
			out = append(out, t)
		}
	}
	return out
}

// TriggerTasks returns the tasks driven by triggers.
func (c *Config) TriggerTasks() []Task {
	var out []Task
	for _, t := range c.Tasks {
		if t.Trigger != nil {
			out = append(out, t)
		}
	}
	return out
}
