package config

import (
	"fmt"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

// Validate checks structural invariants across the configuration.
// Cron expressions are parsed when the scheduler is built; here they only
// need to be present.
func (c *Config) Validate() error {
	seen := make(map[string]bool)

	for i := range c.Tasks {
		t := &c.Tasks[i]

		if t.Name == "" {
			return &capability.ConfigError{Task: fmt.Sprintf("#%d", i), Field: "name", Reason: "required"}
		}
		if seen[t.Name] {
			return &capability.ConfigError{Task: t.Name, Field: "name", Reason: "duplicate task name"}
		}
		seen[t.Name] = true

		if err := validateTask(t); err != nil {
			return err
		}
	}

	return nil
}

func validateTask(t *Task) error {
	if (t.Schedule == nil) == (t.Trigger == nil) {
		return &capability.ConfigError{Task: t.Name, Field: "schedule", Reason: "exactly one of schedule or trigger is required"}
	}

	// Content source: direct tasks name a content plugin, pack tasks name a pack
	if t.Pack == "" {
		if t.Content == nil || t.Content.Plugin == "" {
			return &capability.ConfigError{Task: t.Name, Field: "content", Reason: "required"}
		}
	} else if t.Content != nil {
		return &capability.ConfigError{Task: t.Name, Field: "content", Reason: "pack tasks take content from the pack"}
	}

	if t.LLM == nil || t.LLM.Plugin == "" {
		return &capability.ConfigError{Task: t.Name, Field: "llm", Reason: "required"}
	}

	for _, group := range []struct {
		field string
		refs  []PluginRef
	}{
		{"actions", t.Actions},
		{"notifiers", t.Notifiers},
		{"error_notifiers", t.ErrorNotifiers},
	} {
		for _, ref := range group.refs {
			if ref.Plugin == "" {
				return &capability.ConfigError{Task: t.Name, Field: group.field, Reason: "plugin name required"}
			}
		}
	}

	if t.Schedule != nil {
		if err := validateSchedule(t.Name, t.Schedule); err != nil {
			return err
		}
	}

	if t.Trigger != nil && t.Trigger.Type == "" && t.Pack == "" {
		return &capability.ConfigError{Task: t.Name, Field: "trigger", Reason: "type required"}
	}

	if t.Retry != nil {
		if t.Retry.MaxAttempts < 0 {
			return &capability.ConfigError{Task: t.Name, Field: "retry", Reason: "max_attempts cannot be negative"}
		}
		if t.Retry.BackoffFactor < 0 {
			return &capability.ConfigError{Task: t.Name, Field: "retry", Reason: "backoff_factor cannot be negative"}
		}
	}

	return nil
}

func validateSchedule(task string, s *Schedule) error {
	set := 0
	if s.Cron != "" {
		set++
	}
	if s.Every != "" {
		set++
	}
	if s.At != "" {
		set++
	}
	if set != 1 {
		return &capability.ConfigError{Task: task, Field: "schedule", Reason: "exactly one of cron, every or at is required"}
	}

	if s.Every != "" {
		d, err := time.ParseDuration(s.Every)
		if err != nil {
			return &capability.ConfigError{Task: task, Field: "schedule.every", Reason: err.Error()}
		}
		if d <= 0 {
			return &capability.ConfigError{Task: task, Field: "schedule.every", Reason: "must be positive"}
		}
	}

	if s.At != "" {
		if _, err := time.Parse(time.RFC3339, s.At); err != nil {
			return &capability.ConfigError{Task: task, Field: "schedule.at", Reason: "not an RFC3339 timestamp"}
		}
	}

	return nil
}
