// Package capability defines the plugin contracts briefd pipelines are
// assembled from, and the registry that resolves them by kind and name.
package capability

import (
	"context"
	"time"
)

// Kind identifies one of the five fixed capability categories.
type Kind string

const (
	KindContent  Kind = "content"
	KindLLM      Kind = "llm"
	KindNotifier Kind = "notifier"
	KindAction   Kind = "action"
	KindTrigger  Kind = "trigger"
)

// Constructor builds a capability instance from its spec params.
// The returned value must implement the interface for the kind it was
// registered under; the registry's typed loaders verify this.
type Constructor func(params map[string]any) (any, error)

// CheckFunc verifies an external requirement (a binary on PATH, a reachable
// service) before a plugin is constructed. A non-nil return fails the load.
type CheckFunc func() error

// ContentProvider fetches the raw material a task summarizes.
type ContentProvider interface {
	// Prompt returns the instruction handed to the LLM alongside the content.
	Prompt() string

	// Fetch retrieves the content. Errors are returned raw; the executor
	// decides whether an attempt is worth repeating.
	Fetch(ctx context.Context) (string, error)
}

// Sender produces a summary of content through an LLM provider.
type Sender interface {
	Name() string
	Summarize(ctx context.Context, prompt, content string) (string, error)
}

// Notifier delivers a message to one channel.
type Notifier interface {
	Name() string

	// Send returns false for a refused delivery. Transport errors come back
	// alongside false; the executor logs them and moves on to the next
	// notifier.
	Send(ctx context.Context, message, title string) (bool, error)
}

// Action post-processes LLM output inside the action chain, and may expose
// itself to the LLM as a callable tool.
type Action interface {
	Name() string
	Process(ctx context.Context, output string, execCtx *TaskContext) (ActionResult, error)

	// ToolSpec describes the action as an LLM-callable function, or nil if
	// the action only runs in the deterministic chain.
	ToolSpec() *ToolSpec
}

// Trigger is an event source polled by the trigger manager. Instances live
// for the process lifetime and own private state touched only by their own
// poll loop.
type Trigger interface {
	// Setup establishes baseline state, e.g. the newest already-seen entry.
	Setup(ctx context.Context) error

	// Check polls once. A true return means new data is waiting in
	// TriggerData.
	Check(ctx context.Context) (bool, error)

	// TriggerData returns the payload of the most recent positive Check.
	TriggerData() map[string]any

	Teardown() error

	// Interval is the polling cadence. Zero means the manager default.
	Interval() time.Duration
}

// ActionResult is what an action hands back to the pipeline.
type ActionResult struct {
	Output         string
	ShouldContinue bool
	Metadata       map[string]any
}

// ToolSpec describes an action as a function the LLM can invoke directly.
// Parameters holds a JSON-schema object describing the arguments.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// TaskContext is the typed accumulator threaded through one task invocation.
// Stages run strictly in order within an invocation, so no locking is needed.
type TaskContext struct {
	TaskName    string
	TriggerData map[string]any
	StartedAt   time.Time
	Content     string
	Prompt      string
	LLMOutput   string

	// Metadata accumulates across executed actions; colliding keys are
	// overwritten by later actions.
	Metadata map[string]any
}

// PackName is the registry name of a pack-scoped capability, e.g.
// PackName("rss", KindContent) == "rss.content".
func PackName(pack string, kind Kind) string {
	return pack + "." + string(kind)
}
