// Package pipeline executes one configured task end to end: fetch content,
// summarize it through an LLM sender, run the action chain over the result,
// and deliver to the notifiers.
//
// The stages are isolated from one another. Fetch and summarize failures
// fail the run and fan out to the task's error notifiers. Action failures
// halt the chain but not the run. Notifier failures are logged per notifier
// and never abort their siblings. Every run start, finish and notifier
// outcome is published on the event bus.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
	"github.com/aristath/briefd/internal/events"
	"github.com/aristath/briefd/internal/retry"
)

// Executor runs tasks. One executor serves the whole process; Run is safe
// for concurrent use.
type Executor struct {
	registry *capability.Registry
	bus      *events.Bus
	logger   *log.Logger
	policy   retry.Policy
	breakers *BreakerRegistry
	actions  *ActionPipeline
}

// New creates an executor. policy is the default retry policy; tasks can
// override attempts and factor in their config.
func New(registry *capability.Registry, bus *events.Bus, logger *log.Logger, policy retry.Policy) *Executor {
	return &Executor{
		registry: registry,
		bus:      bus,
		logger:   logger,
		policy:   policy,
		breakers: NewBreakerRegistry(logger),
		actions:  NewActionPipeline(registry, logger),
	}
}

// Run executes one task invocation. source says what started it
// ("schedule", "trigger" or "manual"); triggerData is the payload of the
// trigger fire, nil otherwise.
//
// The returned error is the task's failure. A run that reaches the end of
// its pipeline is a success even when a notifier misfires or an action
// halts delivery; those outcomes are visible in the run events instead.
func (e *Executor) Run(ctx context.Context, task config.Task, triggerData map[string]any, source string) error {
	runID := uuid.NewString()
	started := time.Now()

	e.logger.Printf("task %q: run %s started (%s)", task.Name, runID, source)
	e.bus.Publish(events.RunStarted{RunID: runID, TaskName: task.Name, Source: source, At: started})

	attempted, delivered, err := e.run(ctx, task, triggerData, runID)

	finished := events.RunFinished{
		RunID:     runID,
		TaskName:  task.Name,
		Status:    events.StatusSucceeded,
		Duration:  time.Since(started),
		Attempted: attempted,
		Delivered: delivered,
		At:        time.Now(),
	}
	if err != nil {
		finished.Status = events.StatusFailed
		finished.Err = err.Error()
	}
	e.bus.Publish(finished)

	if err == nil {
		e.logger.Printf("task %q: run %s finished in %s (%d/%d notifiers delivered)",
			task.Name, runID, finished.Duration.Round(time.Millisecond), delivered, attempted)
	}
	return err
}

// run is the pipeline body. It returns the notifier counts for the run
// record; on failure the counts cover the error notifiers.
func (e *Executor) run(ctx context.Context, task config.Task, triggerData map[string]any, runID string) (int, int, error) {
	execCtx := &capability.TaskContext{
		TaskName:    task.Name,
		TriggerData: triggerData,
		StartedAt:   time.Now(),
		Metadata:    map[string]any{},
	}

	pol := e.policyFor(task)

	// Resolve the provider and sender up front so a broken spec fails
	// before any network call.
	provider, err := e.loadProvider(task, triggerData)
	if err != nil {
		return e.failTask(ctx, task, runID, fmt.Errorf("loading content provider: %w", err))
	}

	sender, err := e.loadSender(task)
	if err != nil {
		return e.failTask(ctx, task, runID, fmt.Errorf("loading llm sender: %w", err))
	}

	content, err := e.fetch(ctx, task, provider, pol)
	if err != nil {
		return e.failTask(ctx, task, runID, fmt.Errorf("fetching content: %w", err))
	}
	execCtx.Content = content
	execCtx.Prompt = provider.Prompt()

	output, err := e.summarize(ctx, task, sender, execCtx.Prompt, content, pol)
	if err != nil {
		return e.failTask(ctx, task, runID, fmt.Errorf("summarizing: %w", err))
	}
	execCtx.LLMOutput = output

	result := e.actions.Run(ctx, task, output, execCtx)

	if !task.NotifyEnabled() {
		e.logger.Printf("task %q: notification disabled, skipping delivery", task.Name)
		return 0, 0, nil
	}
	if !result.ShouldContinue {
		e.logger.Printf("task %q: action chain halted, skipping delivery", task.Name)
		return 0, 0, nil
	}

	attempted, delivered := e.notify(ctx, task, runID, task.Notifiers, result.Output, "")
	return attempted, delivered, nil
}

// loadProvider resolves the task's content source: the pack's provider for
// pack tasks, the configured content plugin otherwise. The trigger payload
// rides along under the reserved "trigger_data" param.
func (e *Executor) loadProvider(task config.Task, triggerData map[string]any) (capability.ContentProvider, error) {
	if task.Pack != "" {
		return e.registry.LoadPackContent(task.Pack, withTriggerData(task.Params, triggerData))
	}
	if task.Content == nil {
		return nil, &capability.ConfigError{Task: task.Name, Field: "content", Reason: "required"}
	}
	return e.registry.LoadContent(task.Content.Plugin, withTriggerData(task.Content.Params, triggerData))
}

// withTriggerData copies params with the trigger payload added. The
// original map is never mutated; specs are shared between runs.
func withTriggerData(params, triggerData map[string]any) map[string]any {
	if triggerData == nil {
		return params
	}
	merged := make(map[string]any, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged["trigger_data"] = triggerData
	return merged
}

// loadSender resolves the LLM sender, injecting the collected action tool
// specs under the reserved "tools" param.
func (e *Executor) loadSender(task config.Task) (capability.Sender, error) {
	if task.LLM == nil {
		return nil, &capability.ConfigError{Task: task.Name, Field: "llm", Reason: "required"}
	}

	params := task.LLM.Params
	if tools := e.collectToolSpecs(task); len(tools) > 0 {
		params = make(map[string]any, len(task.LLM.Params)+1)
		for k, v := range task.LLM.Params {
			params[k] = v
		}
		params["tools"] = tools
	}

	return e.registry.LoadSender(task.LLM.Plugin, params)
}

// collectToolSpecs gathers the tool specs of the task's actions. A broken
// action spec is skipped here; the action chain surfaces it properly once
// the summary exists.
func (e *Executor) collectToolSpecs(task config.Task) []capability.ToolSpec {
	var specs []capability.ToolSpec
	for _, ref := range task.Actions {
		a, err := e.registry.LoadAction(ref.Plugin, ref.Params)
		if err != nil {
			e.logger.Printf("WARNING: task %q: action %q unavailable for tool listing: %v", task.Name, ref.Plugin, err)
			continue
		}
		if spec := a.ToolSpec(); spec != nil {
			specs = append(specs, *spec)
		}
	}
	return specs
}

// fetch runs the provider under the retry policy.
func (e *Executor) fetch(ctx context.Context, task config.Task, provider capability.ContentProvider, pol retry.Policy) (string, error) {
	var content string

	op := func() error {
		// Check context first - fail fast if cancelled
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		var err error
		content, err = provider.Fetch(ctx)
		return err
	}

	err := retry.Do(ctx, pol, op, e.retryLogger(task.Name, "fetch"))
	return content, err
}

// summarize runs the sender under the retry policy plus the provider's
// circuit breaker.
func (e *Executor) summarize(ctx context.Context, task config.Task, sender capability.Sender, prompt, content string, pol retry.Policy) (string, error) {
	cb := e.breakers.Get(sender.Name())
	var out string

	op := func() error {
		// Check context first - fail fast if cancelled
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}

		result, err := cb.Execute(func() (any, error) {
			return sender.Summarize(ctx, prompt, content)
		})
		if err != nil {
			// Circuit is open - don't retry
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return retry.Permanent(err)
			}
			// Context cancelled - stop retrying
			if ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return err
		}

		out = result.(string)
		return nil
	}

	err := retry.Do(ctx, pol, op, e.retryLogger(task.Name, "summarize"))
	return out, err
}

// notify fans the message out to the given notifier specs in order. Every
// spec is attempted regardless of earlier failures, and each outcome is
// published as a NotifierResult.
func (e *Executor) notify(ctx context.Context, task config.Task, runID string, specs []config.PluginRef, message, title string) (attempted, delivered int) {
	for _, spec := range specs {
		attempted++

		n, err := e.registry.LoadNotifier(spec.Plugin, spec.Params)
		if err != nil {
			e.logger.Printf("ERROR: task %q: loading notifier %q: %v", task.Name, spec.Plugin, err)
			e.bus.Publish(events.NotifierResult{
				RunID: runID, TaskName: task.Name, Notifier: spec.Plugin,
				Delivered: false, Err: err.Error(), At: time.Now(),
			})
			continue
		}

		ok, err := e.sendNotification(ctx, task, n, message, title)
		res := events.NotifierResult{
			RunID: runID, TaskName: task.Name, Notifier: n.Name(),
			Delivered: ok, At: time.Now(),
		}
		switch {
		case err != nil:
			res.Err = err.Error()
			e.logger.Printf("ERROR: task %q: notifier %q failed: %v", task.Name, n.Name(), err)
		case !ok:
			e.logger.Printf("WARNING: task %q: notifier %q refused delivery", task.Name, n.Name())
		default:
			delivered++
		}
		e.bus.Publish(res)
	}
	return attempted, delivered
}

// sendNotification runs one notifier under the retry policy. Only the send
// is retried; a soft refusal (false, nil) is final.
func (e *Executor) sendNotification(ctx context.Context, task config.Task, n capability.Notifier, message, title string) (bool, error) {
	var ok bool

	op := func() error {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		var err error
		ok, err = n.Send(ctx, message, title)
		return err
	}

	err := retry.Do(ctx, e.policyFor(task), op, e.retryLogger(task.Name, "notifier "+n.Name()))
	return ok, err
}

// failTask logs the failure and fans it out to the task's error notifiers.
// The error comes back unchanged alongside the error-notifier counts.
func (e *Executor) failTask(ctx context.Context, task config.Task, runID string, err error) (int, int, error) {
	if capability.IsTransient(err) {
		e.logger.Printf("ERROR: task %q: transient failure persisted: %v", task.Name, err)
	} else {
		e.logger.Printf("ERROR: task %q: %v", task.Name, err)
	}

	var attempted, delivered int
	if len(task.ErrorNotifiers) > 0 {
		message := fmt.Sprintf("Task failed: %v", err)
		title := fmt.Sprintf("Error: %s", task.Name)
		attempted, delivered = e.notify(ctx, task, runID, task.ErrorNotifiers, message, title)
	}
	return attempted, delivered, err
}

// policyFor resolves the retry policy: task overrides on top of the
// default, zero fields inherit.
func (e *Executor) policyFor(task config.Task) retry.Policy {
	pol := e.policy
	if task.Retry != nil {
		if task.Retry.MaxAttempts > 0 {
			pol.MaxAttempts = task.Retry.MaxAttempts
		}
		if task.Retry.BackoffFactor > 0 {
			pol.Factor = task.Retry.BackoffFactor
		}
	}
	return pol
}

// retryLogger reports each failed attempt that will be retried.
func (e *Executor) retryLogger(task, stage string) retry.NotifyFunc {
	return func(attempt int, err error) {
		e.logger.Printf("WARNING: task %q: %s attempt %d failed, retrying: %v", task, stage, attempt, err)
	}
}
