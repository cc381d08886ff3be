package action

import (
	"context"

	"github.com/aristath/briefd/internal/capability"
)

// TruncateAction caps output length, counting runes so multibyte text is
// never split mid-character.
type TruncateAction struct {
	maxChars int
	ellipsis string
}

// NewTruncate creates the truncate action. Params: max_chars (required,
// positive), ellipsis (default "...").
func NewTruncate(params map[string]any) (*TruncateAction, error) {
	maxChars := capability.IntParam(params, "max_chars", 0)
	if maxChars <= 0 {
		return nil, &capability.ConfigError{Field: "max_chars", Reason: "required and must be positive"}
	}

	return &TruncateAction{
		maxChars: maxChars,
		ellipsis: capability.StringParam(params, "ellipsis", "..."),
	}, nil
}

// Name identifies the action in logs and errors.
func (a *TruncateAction) Name() string { return "truncate" }

// Process shortens the output to max_chars runes, ellipsis included.
func (a *TruncateAction) Process(ctx context.Context, output string, execCtx *capability.TaskContext) (capability.ActionResult, error) {
	runes := []rune(output)
	truncated := len(runes) > a.maxChars

	text := output
	if truncated {
		keep := a.maxChars - len([]rune(a.ellipsis))
		if keep < 0 {
			keep = 0
		}
		text = string(runes[:keep]) + a.ellipsis
	}

	return capability.ActionResult{
		Output:         text,
		ShouldContinue: true,
		Metadata:       map[string]any{"truncated": truncated},
	}, nil
}

// ToolSpec is nil: truncation is a post-hoc step.
func (a *TruncateAction) ToolSpec() *capability.ToolSpec { return nil }
