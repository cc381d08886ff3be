package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} references in the raw config text.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// escapeMark temporarily stands in for the $${ escape during expansion.
const escapeMark = "\x00briefd-dollar\x00"

// Load reads, expands and validates the YAML configuration at path.
//
// ${VAR} references are replaced with the named environment variable.
// Unset variables expand to the empty string and log a warning. Writing
// $${...} escapes the expansion and yields a literal ${...}.
func Load(path string, logger *log.Logger) (*Config, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	expanded := substituteEnv(string(data), logger)

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// substituteEnv expands ${VAR} references against the environment.
func substituteEnv(text string, logger *log.Logger) string {
	// Hide escaped references before expanding
	text = strings.ReplaceAll(text, "$${", escapeMark)

	text = envPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			logger.Printf("WARNING: config references unset environment variable %s", name)
			return ""
		}
		return value
	})

	return strings.ReplaceAll(text, escapeMark, "${")
}
