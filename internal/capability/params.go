package capability

// Param helpers decode the free-form YAML params map plugins are constructed
// from. YAML numbers arrive as int or float64 depending on their literal
// form, so the numeric helpers accept both.

// StringParam returns the string value of key, or def when absent or not a
// string.
func StringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

// RequireString returns the string value of key, or a ConfigError when it is
// absent or empty.
func RequireString(params map[string]any, key string) (string, error) {
	s := StringParam(params, key, "")
	if s == "" {
		return "", &ConfigError{Field: key, Reason: "required"}
	}
	return s, nil
}

// IntParam returns the integer value of key, or def when absent.
func IntParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// FloatParam returns the float value of key, or def when absent.
func FloatParam(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// BoolParam returns the boolean value of key, or def when absent.
func BoolParam(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// StringsParam returns the string-list value of key. YAML lists decode as
// []any, so both forms are accepted. Non-string elements are skipped.
func StringsParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
