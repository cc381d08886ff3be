package config

// applyDefaults fills unset knobs with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Defaults.MaxConcurrentTasks <= 0 {
		cfg.Defaults.MaxConcurrentTasks = 4
	}
	if cfg.Defaults.TriggerPollSeconds <= 0 {
		cfg.Defaults.TriggerPollSeconds = 300
	}
	if cfg.Defaults.Retry.MaxAttempts <= 0 {
		cfg.Defaults.Retry.MaxAttempts = 3
	}
	if cfg.Defaults.Retry.BackoffFactor <= 0 {
		cfg.Defaults.Retry.BackoffFactor = 2.0
	}
}
