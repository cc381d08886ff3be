package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save persists the configuration to a YAML file.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Example returns a starter configuration that runs without API keys:
// a static line summarized by a local Ollama model and printed to stdout.
func Example() *Config {
	return &Config{
		History: History{Path: "briefd.db"},
		Tasks: []Task{
			{
				Name:     "hello",
				Schedule: &Schedule{Every: "1h"},
				Content: &PluginRef{
					Plugin: "static",
					Params: map[string]any{
						"text":   "briefd is configured and running.",
						"prompt": "Relay this status line to the user in one short sentence.",
					},
				},
				LLM: &PluginRef{
					Plugin: "ollama",
					Params: map[string]any{"model": "llama3.2"},
				},
				Notifiers: []PluginRef{{Plugin: "stdout"}},
			},
		},
	}
}
