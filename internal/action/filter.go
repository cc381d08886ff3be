// Package action implements the post-processing steps that run over LLM
// output after a summary is produced. Actions execute in their declared
// order; each one can rewrite the text, attach metadata, and decide whether
// the chain continues on to notification.
package action

import (
	"context"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

// FilterAction gates the chain on keyword presence.
type FilterAction struct {
	keywords      []string
	mode          string
	caseSensitive bool
}

// NewFilter creates the filter action. Params: keywords (required list),
// mode (any|all, default any), case_sensitive (default false).
func NewFilter(params map[string]any) (*FilterAction, error) {
	keywords := capability.StringsParam(params, "keywords")
	if len(keywords) == 0 {
		return nil, &capability.ConfigError{Field: "keywords", Reason: "required"}
	}

	mode := capability.StringParam(params, "mode", "any")
	if mode != "any" && mode != "all" {
		return nil, &capability.ConfigError{Field: "mode", Reason: "must be any or all"}
	}

	return &FilterAction{
		keywords:      keywords,
		mode:          mode,
		caseSensitive: capability.BoolParam(params, "case_sensitive", false),
	}, nil
}

// Name identifies the action in logs and errors.
func (a *FilterAction) Name() string { return "filter" }

// Process passes the output through untouched; a keyword miss halts the
// chain so nothing is delivered for content the task does not care about.
func (a *FilterAction) Process(ctx context.Context, output string, execCtx *capability.TaskContext) (capability.ActionResult, error) {
	haystack := output
	if !a.caseSensitive {
		haystack = strings.ToLower(output)
	}

	hits := make([]string, 0, len(a.keywords))
	for _, kw := range a.keywords {
		needle := kw
		if !a.caseSensitive {
			needle = strings.ToLower(kw)
		}
		if strings.Contains(haystack, needle) {
			hits = append(hits, kw)
		}
	}

	matched := len(hits) > 0
	if a.mode == "all" {
		matched = len(hits) == len(a.keywords)
	}

	return capability.ActionResult{
		Output:         output,
		ShouldContinue: matched,
		Metadata: map[string]any{
			"filter_matched":      matched,
			"filter_keywords_hit": hits,
		},
	}, nil
}

// ToolSpec exposes the filter as an LLM-callable function.
func (a *FilterAction) ToolSpec() *capability.ToolSpec {
	return &capability.ToolSpec{
		Name:        "filter_content",
		Description: "Check whether text mentions any of the configured keywords.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to check.",
				},
			},
			"required": []string{"text"},
		},
	}
}
