package content

import (
	"context"

	"github.com/aristath/briefd/internal/capability"
)

// StaticProvider returns fixed text. Useful for smoke-testing a pipeline
// without an upstream dependency.
type StaticProvider struct {
	text   string
	prompt string
}

// NewStatic builds a static provider from plugin params.
// Required: text. Optional: prompt.
func NewStatic(params map[string]any) (*StaticProvider, error) {
	text, err := capability.RequireString(params, "text")
	if err != nil {
		return nil, err
	}

	return &StaticProvider{
		text:   text,
		prompt: capability.StringParam(params, "prompt", "Summarize the following text in one short paragraph."),
	}, nil
}

func (p *StaticProvider) Prompt() string { return p.prompt }

func (p *StaticProvider) Fetch(ctx context.Context) (string, error) {
	return p.text, nil
}
