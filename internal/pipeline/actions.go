package pipeline

import (
	"context"
	"log"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
)

// ActionPipeline runs a task's actions in their declared order over the LLM
// output.
type ActionPipeline struct {
	registry *capability.Registry
	logger   *log.Logger
}

// NewActionPipeline creates an action pipeline over the given registry.
func NewActionPipeline(registry *capability.Registry, logger *log.Logger) *ActionPipeline {
	return &ActionPipeline{registry: registry, logger: logger}
}

// Run threads output through the task's actions. Each action sees the
// previous action's output; metadata accumulates onto execCtx with later
// writers overwriting colliding keys.
//
// A load or processing error halts the chain: the last good output stands
// and ShouldContinue comes back false, so nothing half-processed is
// delivered. An empty action list returns the output unchanged with
// ShouldContinue true.
func (p *ActionPipeline) Run(ctx context.Context, task config.Task, output string, execCtx *capability.TaskContext) capability.ActionResult {
	result := capability.ActionResult{Output: output, ShouldContinue: true, Metadata: execCtx.Metadata}

	for _, ref := range task.Actions {
		a, err := p.registry.LoadAction(ref.Plugin, ref.Params)
		if err != nil {
			p.logger.Printf("ERROR: task %q: loading action %q: %v", task.Name, ref.Plugin, err)
			result.ShouldContinue = false
			return result
		}

		res, err := a.Process(ctx, result.Output, execCtx)
		if err != nil {
			p.logger.Printf("ERROR: task %q: action %q failed: %v", task.Name, a.Name(), err)
			result.ShouldContinue = false
			return result
		}

		mergeMetadata(execCtx, res.Metadata)
		result.Output = res.Output
		result.Metadata = execCtx.Metadata

		if !res.ShouldContinue {
			p.logger.Printf("task %q: action %q halted the chain", task.Name, a.Name())
			result.ShouldContinue = false
			return result
		}
	}

	return result
}

// mergeMetadata folds an action's metadata into the run context.
func mergeMetadata(execCtx *capability.TaskContext, md map[string]any) {
	if len(md) == 0 {
		return
	}
	if execCtx.Metadata == nil {
		execCtx.Metadata = make(map[string]any, len(md))
	}
	for k, v := range md {
		execCtx.Metadata[k] = v
	}
}
