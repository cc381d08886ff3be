package capability

import (
	"errors"
	"reflect"
	"testing"
)

// TestStringParam verifies defaults and typed lookups.
func TestStringParam(t *testing.T) {
	params := map[string]any{"name": "value", "count": 3}

	if got := StringParam(params, "name", "fallback"); got != "value" {
		t.Errorf("expected 'value', got %q", got)
	}
	if got := StringParam(params, "missing", "fallback"); got != "fallback" {
		t.Errorf("expected 'fallback', got %q", got)
	}
	if got := StringParam(params, "count", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for non-string, got %q", got)
	}
	if got := StringParam(nil, "name", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for nil map, got %q", got)
	}
}

// TestRequireString verifies the missing-key error shape.
func TestRequireString(t *testing.T) {
	params := map[string]any{"token": "abc", "empty": ""}

	got, err := RequireString(params, "token")
	if err != nil {
		t.Fatalf("RequireString failed: %v", err)
	}
	if got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}

	for _, key := range []string{"missing", "empty"} {
		_, err := RequireString(params, key)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("key %q: expected ConfigError, got %v", key, err)
		}
		if cfgErr.Field != key {
			t.Errorf("key %q: expected field in error, got %q", key, cfgErr.Field)
		}
	}
}

// TestIntParam verifies the numeric conversions YAML decoding produces.
func TestIntParam(t *testing.T) {
	params := map[string]any{
		"as_int":     7,
		"as_int64":   int64(8),
		"as_float64": float64(9),
		"as_string":  "10",
	}

	if got := IntParam(params, "as_int", 0); got != 7 {
		t.Errorf("int: expected 7, got %d", got)
	}
	if got := IntParam(params, "as_int64", 0); got != 8 {
		t.Errorf("int64: expected 8, got %d", got)
	}
	if got := IntParam(params, "as_float64", 0); got != 9 {
		t.Errorf("float64: expected 9, got %d", got)
	}
	if got := IntParam(params, "as_string", 42); got != 42 {
		t.Errorf("string: expected fallback 42, got %d", got)
	}
	if got := IntParam(params, "missing", 42); got != 42 {
		t.Errorf("missing: expected fallback 42, got %d", got)
	}
}

// TestFloatParam verifies float lookups accept ints too.
func TestFloatParam(t *testing.T) {
	params := map[string]any{"rate": 2.5, "whole": 3}

	if got := FloatParam(params, "rate", 0); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := FloatParam(params, "whole", 0); got != 3.0 {
		t.Errorf("expected 3.0, got %v", got)
	}
	if got := FloatParam(params, "missing", 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5, got %v", got)
	}
}

// TestBoolParam verifies bool lookups.
func TestBoolParam(t *testing.T) {
	params := map[string]any{"on": true, "off": false}

	if !BoolParam(params, "on", false) {
		t.Error("expected true")
	}
	if BoolParam(params, "off", true) {
		t.Error("expected false")
	}
	if !BoolParam(params, "missing", true) {
		t.Error("expected fallback true")
	}
}

// TestStringsParam verifies both []string and decoded []any forms.
func TestStringsParam(t *testing.T) {
	params := map[string]any{
		"typed":   []string{"a", "b"},
		"decoded": []any{"c", "d"},
		"mixed":   []any{"e", 5},
	}

	if got := StringsParam(params, "typed"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("typed: got %v", got)
	}
	if got := StringsParam(params, "decoded"); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("decoded: got %v", got)
	}
	if got := StringsParam(params, "mixed"); !reflect.DeepEqual(got, []string{"e"}) {
		t.Errorf("mixed: expected non-strings skipped, got %v", got)
	}
	if got := StringsParam(params, "missing"); got != nil {
		t.Errorf("missing: expected nil, got %v", got)
	}
}
