package action

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

// Compile-time checks that every action satisfies the capability interface.
var (
	_ capability.Action = &FilterAction{}
	_ capability.Action = &FormatAction{}
	_ capability.Action = &SentimentAction{}
	_ capability.Action = &TruncateAction{}
)

func testContext(task string) *capability.TaskContext {
	return &capability.TaskContext{
		TaskName:  task,
		StartedAt: time.Now(),
		Metadata:  map[string]any{},
	}
}

func TestFilterAnyMode(t *testing.T) {
	a, err := NewFilter(map[string]any{"keywords": []any{"go", "rust"}})
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	res, err := a.Process(context.Background(), "I love Go", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !res.ShouldContinue {
		t.Error("expected chain to continue on a hit")
	}
	if res.Output != "I love Go" {
		t.Errorf("expected output unchanged, got %q", res.Output)
	}
	if res.Metadata["filter_matched"] != true {
		t.Errorf("expected filter_matched=true, got %v", res.Metadata["filter_matched"])
	}
	hits := res.Metadata["filter_keywords_hit"].([]string)
	if len(hits) != 1 || hits[0] != "go" {
		t.Errorf("expected hit [go], got %v", hits)
	}
}

func TestFilterAllMode(t *testing.T) {
	a, err := NewFilter(map[string]any{"keywords": []any{"go", "fast"}, "mode": "all"})
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	res, err := a.Process(context.Background(), "Go is fast", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !res.ShouldContinue {
		t.Error("expected continue when all keywords hit")
	}

	res, err = a.Process(context.Background(), "Go is slow", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.ShouldContinue {
		t.Error("expected halt when one keyword misses in all mode")
	}
	if res.Metadata["filter_matched"] != false {
		t.Errorf("expected filter_matched=false, got %v", res.Metadata["filter_matched"])
	}
}

func TestFilterCaseSensitive(t *testing.T) {
	a, err := NewFilter(map[string]any{"keywords": []any{"Go"}, "case_sensitive": true})
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	res, err := a.Process(context.Background(), "go go go", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.ShouldContinue {
		t.Error("expected miss for lowercase text with case_sensitive")
	}
}

func TestFilterValidation(t *testing.T) {
	if _, err := NewFilter(nil); err == nil {
		t.Error("expected error for missing keywords")
	}

	_, err := NewFilter(map[string]any{"keywords": []any{"x"}, "mode": "some"})
	var cfgErr *capability.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "mode" {
		t.Errorf("expected field 'mode', got %q", cfgErr.Field)
	}
}

func TestFilterToolSpec(t *testing.T) {
	a, err := NewFilter(map[string]any{"keywords": []any{"x"}})
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}

	spec := a.ToolSpec()
	if spec == nil {
		t.Fatal("expected a tool spec")
	}
	if spec.Name != "filter_content" {
		t.Errorf("expected tool name filter_content, got %q", spec.Name)
	}
	if spec.Parameters["type"] != "object" {
		t.Errorf("expected JSON-schema object parameters, got %v", spec.Parameters)
	}
}

func TestFormatPrefixSuffix(t *testing.T) {
	a, err := NewFormat(map[string]any{"prefix": "P: ", "suffix": " :S"})
	if err != nil {
		t.Fatalf("NewFormat failed: %v", err)
	}

	res, err := a.Process(context.Background(), "text", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Output != "P: text :S" {
		t.Errorf("unexpected output %q", res.Output)
	}
	if !res.ShouldContinue {
		t.Error("format must always continue")
	}
	if res.Metadata["formatted"] != true {
		t.Errorf("expected formatted=true, got %v", res.Metadata["formatted"])
	}
}

func TestFormatTimestamp(t *testing.T) {
	a, err := NewFormat(map[string]any{"timestamp": true})
	if err != nil {
		t.Fatalf("NewFormat failed: %v", err)
	}

	res, err := a.Process(context.Background(), "hello", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !strings.HasPrefix(res.Output, "hello\n\n") {
		t.Fatalf("expected timestamp appended after blank line, got %q", res.Output)
	}
	stamp := strings.TrimPrefix(res.Output, "hello\n\n")
	if _, err := time.Parse("2006-01-02 15:04", stamp); err != nil {
		t.Errorf("timestamp %q does not parse: %v", stamp, err)
	}
}

func TestFormatTemplate(t *testing.T) {
	a, err := NewFormat(map[string]any{"template": "{{.TaskName}}: {{.Output}}"})
	if err != nil {
		t.Fatalf("NewFormat failed: %v", err)
	}

	res, err := a.Process(context.Background(), "sum", testContext("daily"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Output != "daily: sum" {
		t.Errorf("unexpected output %q", res.Output)
	}
}

func TestFormatBadTemplate(t *testing.T) {
	_, err := NewFormat(map[string]any{"template": "{{"})

	var cfgErr *capability.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "template" {
		t.Errorf("expected field 'template', got %q", cfgErr.Field)
	}
}

func TestFormatTemplateRuntimeError(t *testing.T) {
	a, err := NewFormat(map[string]any{"template": "{{.NoSuchField}}"})
	if err != nil {
		t.Fatalf("NewFormat failed: %v", err)
	}

	if _, err := a.Process(context.Background(), "x", testContext("t")); err == nil {
		t.Error("expected execution error for unknown field")
	}
}

func TestSentimentScoring(t *testing.T) {
	cases := []struct {
		text      string
		wantScore float64
		wantLabel string
	}{
		{"Great gains and strong growth", 1, "positive"},
		{"A terrible crash, heavy losses", -1, "negative"},
		{"The sky is blue today", 0, "neutral"},
		{"Gains offset by losses", 0, "neutral"},
		{"Record gains! One loss.", 1.0 / 3.0, "positive"},
	}

	a, err := NewSentiment(nil)
	if err != nil {
		t.Fatalf("NewSentiment failed: %v", err)
	}

	for _, tc := range cases {
		res, err := a.Process(context.Background(), tc.text, testContext("t"))
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if got := res.Metadata["sentiment_score"].(float64); got != tc.wantScore {
			t.Errorf("%q: expected score %v, got %v", tc.text, tc.wantScore, got)
		}
		if got := res.Metadata["sentiment_label"].(string); got != tc.wantLabel {
			t.Errorf("%q: expected label %q, got %q", tc.text, tc.wantLabel, got)
		}
		if !res.ShouldContinue {
			t.Errorf("%q: expected continue without fail_below", tc.text)
		}
	}
}

func TestSentimentFailBelow(t *testing.T) {
	a, err := NewSentiment(map[string]any{"fail_below": 0.0})
	if err != nil {
		t.Fatalf("NewSentiment failed: %v", err)
	}

	res, err := a.Process(context.Background(), "strong gains", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !res.ShouldContinue {
		t.Error("expected continue for positive text")
	}

	res, err = a.Process(context.Background(), "heavy losses", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.ShouldContinue {
		t.Error("expected halt for score below threshold")
	}
}

func TestSentimentToolSpec(t *testing.T) {
	a, err := NewSentiment(nil)
	if err != nil {
		t.Fatalf("NewSentiment failed: %v", err)
	}
	spec := a.ToolSpec()
	if spec == nil || spec.Name != "analyze_sentiment" {
		t.Errorf("expected analyze_sentiment tool spec, got %+v", spec)
	}
}

func TestTruncate(t *testing.T) {
	a, err := NewTruncate(map[string]any{"max_chars": 10})
	if err != nil {
		t.Fatalf("NewTruncate failed: %v", err)
	}

	res, err := a.Process(context.Background(), "héllo wörld long", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Output != "héllo w..." {
		t.Errorf("unexpected output %q", res.Output)
	}
	if res.Metadata["truncated"] != true {
		t.Errorf("expected truncated=true, got %v", res.Metadata["truncated"])
	}
}

func TestTruncateShortInput(t *testing.T) {
	a, err := NewTruncate(map[string]any{"max_chars": 10})
	if err != nil {
		t.Fatalf("NewTruncate failed: %v", err)
	}

	res, err := a.Process(context.Background(), "hi", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Output != "hi" {
		t.Errorf("expected output unchanged, got %q", res.Output)
	}
	if res.Metadata["truncated"] != false {
		t.Errorf("expected truncated=false, got %v", res.Metadata["truncated"])
	}
}

func TestTruncateCustomEllipsis(t *testing.T) {
	a, err := NewTruncate(map[string]any{"max_chars": 5, "ellipsis": "…"})
	if err != nil {
		t.Fatalf("NewTruncate failed: %v", err)
	}

	res, err := a.Process(context.Background(), "abcdefgh", testContext("t"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Output != "abcd…" {
		t.Errorf("unexpected output %q", res.Output)
	}
}

func TestTruncateValidation(t *testing.T) {
	for _, params := range []map[string]any{nil, {"max_chars": 0}, {"max_chars": -3}} {
		_, err := NewTruncate(params)
		var cfgErr *capability.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("params %v: expected ConfigError, got %v", params, err)
		}
		if cfgErr.Field != "max_chars" {
			t.Errorf("expected field 'max_chars', got %q", cfgErr.Field)
		}
	}
}
