package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
)

func newActionPipeline(t *testing.T, reg *capability.Registry) (*ActionPipeline, *bytes.Buffer) {
	t.Helper()
	var logBuf bytes.Buffer
	return NewActionPipeline(reg, log.New(&logBuf, "", 0)), &logBuf
}

func newExecCtx(task string) *capability.TaskContext {
	return &capability.TaskContext{
		TaskName:  task,
		StartedAt: time.Now(),
		Metadata:  map[string]any{},
	}
}

func TestActionPipelineOrderAndMetadata(t *testing.T) {
	reg := capability.NewRegistry()
	a1 := &scriptedAction{name: "a1", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{
			Output:         output + "-1",
			ShouldContinue: true,
			Metadata:       map[string]any{"x": 1, "shared": "a"},
		}, nil
	}}
	a2 := &scriptedAction{name: "a2", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{
			Output:         output + "-2",
			ShouldContinue: true,
			Metadata:       map[string]any{"y": 2, "shared": "b"},
		}, nil
	}}
	mustRegister(t, reg, capability.KindAction, "a1", a1)
	mustRegister(t, reg, capability.KindAction, "a2", a2)

	p, _ := newActionPipeline(t, reg)
	task := config.Task{Name: "t", Actions: []config.PluginRef{{Plugin: "a1"}, {Plugin: "a2"}}}
	execCtx := newExecCtx("t")

	result := p.Run(context.Background(), task, "base", execCtx)

	if !result.ShouldContinue {
		t.Error("expected the chain to run through")
	}
	if result.Output != "base-1-2" {
		t.Errorf("expected chained output, got %q", result.Output)
	}
	if execCtx.Metadata["x"] != 1 || execCtx.Metadata["y"] != 2 {
		t.Errorf("expected metadata from both actions, got %v", execCtx.Metadata)
	}
	if execCtx.Metadata["shared"] != "b" {
		t.Errorf("expected the later action to win colliding keys, got %v", execCtx.Metadata["shared"])
	}
}

func TestActionPipelineEmptyList(t *testing.T) {
	reg := capability.NewRegistry()
	p, _ := newActionPipeline(t, reg)

	result := p.Run(context.Background(), config.Task{Name: "t"}, "untouched", newExecCtx("t"))

	if !result.ShouldContinue || result.Output != "untouched" {
		t.Errorf("expected a pass-through result, got %+v", result)
	}
}

func TestActionPipelineProcessErrorHalts(t *testing.T) {
	reg := capability.NewRegistry()
	a1 := &scriptedAction{name: "a1", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{Output: output + "-1", ShouldContinue: true}, nil
	}}
	failing := &scriptedAction{name: "failing", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{}, errors.New("exploded")
	}}
	after := &scriptedAction{name: "after", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{Output: "never", ShouldContinue: true}, nil
	}}
	mustRegister(t, reg, capability.KindAction, "a1", a1)
	mustRegister(t, reg, capability.KindAction, "failing", failing)
	mustRegister(t, reg, capability.KindAction, "after", after)

	p, logBuf := newActionPipeline(t, reg)
	task := config.Task{Name: "t", Actions: []config.PluginRef{
		{Plugin: "a1"}, {Plugin: "failing"}, {Plugin: "after"},
	}}

	result := p.Run(context.Background(), task, "base", newExecCtx("t"))

	if result.ShouldContinue {
		t.Error("expected the error to halt the chain")
	}
	if result.Output != "base-1" {
		t.Errorf("expected the last good output to stand, got %q", result.Output)
	}
	if after.calls != 0 {
		t.Error("actions after the failure must not run")
	}
	if !bytes.Contains(logBuf.Bytes(), []byte(`action "failing" failed`)) {
		t.Errorf("expected failure log, got:\n%s", logBuf.String())
	}
}

func TestActionPipelineLoadErrorHalts(t *testing.T) {
	reg := capability.NewRegistry()
	p, logBuf := newActionPipeline(t, reg)
	task := config.Task{Name: "t", Actions: []config.PluginRef{{Plugin: "missing"}}}

	result := p.Run(context.Background(), task, "base", newExecCtx("t"))

	if result.ShouldContinue {
		t.Error("expected an unresolvable action to halt the chain")
	}
	if result.Output != "base" {
		t.Errorf("expected the input to stand, got %q", result.Output)
	}
	if !bytes.Contains(logBuf.Bytes(), []byte(`loading action "missing"`)) {
		t.Errorf("expected load-error log, got:\n%s", logBuf.String())
	}
}

func TestActionPipelineHaltKeepsOwnResult(t *testing.T) {
	reg := capability.NewRegistry()
	halting := &scriptedAction{name: "halting", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{
			Output:         output + "-filtered",
			ShouldContinue: false,
			Metadata:       map[string]any{"filter_matched": false},
		}, nil
	}}
	after := &scriptedAction{name: "after", fn: func(output string) (capability.ActionResult, error) {
		return capability.ActionResult{Output: "never", ShouldContinue: true}, nil
	}}
	mustRegister(t, reg, capability.KindAction, "halting", halting)
	mustRegister(t, reg, capability.KindAction, "after", after)

	p, _ := newActionPipeline(t, reg)
	task := config.Task{Name: "t", Actions: []config.PluginRef{{Plugin: "halting"}, {Plugin: "after"}}}
	execCtx := newExecCtx("t")

	result := p.Run(context.Background(), task, "base", execCtx)

	if result.ShouldContinue {
		t.Error("expected the halt to propagate")
	}
	if result.Output != "base-filtered" {
		t.Errorf("a halting action's own output stands, got %q", result.Output)
	}
	if execCtx.Metadata["filter_matched"] != false {
		t.Errorf("a halting action's metadata stands, got %v", execCtx.Metadata)
	}
	if after.calls != 0 {
		t.Error("actions after the halt must not run")
	}
}
