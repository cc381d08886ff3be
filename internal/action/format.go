package action

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/aristath/briefd/internal/capability"
)

// FormatAction decorates the output: a fixed prefix/suffix, an optional
// timestamp line, or a full template over the execution context.
type FormatAction struct {
	prefix    string
	suffix    string
	timestamp bool
	tmpl      *template.Template
}

// formatData is what a template executes against. Output is the current
// chain text; the embedded context contributes TaskName, TriggerData,
// Content, LLMOutput and the rest.
type formatData struct {
	*capability.TaskContext
	Output string
}

// NewFormat creates the format action. Params: prefix, suffix, timestamp
// (bool), template (Go text/template; when set its result replaces the
// output and the other params apply around it). Template errors surface at
// construction, not mid-run.
func NewFormat(params map[string]any) (*FormatAction, error) {
	a := &FormatAction{
		prefix:    capability.StringParam(params, "prefix", ""),
		suffix:    capability.StringParam(params, "suffix", ""),
		timestamp: capability.BoolParam(params, "timestamp", false),
	}

	if text := capability.StringParam(params, "template", ""); text != "" {
		tmpl, err := template.New("format").Parse(text)
		if err != nil {
			return nil, &capability.ConfigError{Field: "template", Reason: fmt.Sprintf("parse error: %v", err)}
		}
		a.tmpl = tmpl
	}

	return a, nil
}

// Name identifies the action in logs and errors.
func (a *FormatAction) Name() string { return "format" }

// Process rewrites the output and always continues.
func (a *FormatAction) Process(ctx context.Context, output string, execCtx *capability.TaskContext) (capability.ActionResult, error) {
	text := output

	if a.tmpl != nil {
		var buf bytes.Buffer
		if err := a.tmpl.Execute(&buf, formatData{TaskContext: execCtx, Output: output}); err != nil {
			return capability.ActionResult{}, fmt.Errorf("executing template: %w", err)
		}
		text = buf.String()
	}

	if a.prefix != "" {
		text = a.prefix + text
	}
	if a.suffix != "" {
		text = text + a.suffix
	}
	if a.timestamp {
		text = text + "\n\n" + time.Now().Format("2006-01-02 15:04")
	}

	return capability.ActionResult{
		Output:         text,
		ShouldContinue: true,
		Metadata:       map[string]any{"formatted": true},
	}, nil
}

// ToolSpec is nil: formatting is a post-hoc step, not something the LLM
// invokes.
func (a *FormatAction) ToolSpec() *capability.ToolSpec { return nil }
