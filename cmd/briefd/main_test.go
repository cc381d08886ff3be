package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
)

func TestRegisterBuiltins(t *testing.T) {
	reg := capability.NewRegistry()
	if err := registerBuiltins(reg); err != nil {
		t.Fatalf("registerBuiltins: %v", err)
	}

	wantCounts := map[capability.Kind]int{
		capability.KindContent:  6, // five direct providers plus rss.content
		capability.KindLLM:      5,
		capability.KindNotifier: 7,
		capability.KindAction:   4,
		capability.KindTrigger:  3, // interval, file, rss.trigger
	}
	for kind, want := range wantCounts {
		if got := reg.Discover(kind); len(got) != want {
			t.Errorf("expected %d %s capabilities, got %v", want, kind, got)
		}
	}

	for kind, name := range map[capability.Kind]string{
		capability.KindContent: "rss.content",
		capability.KindTrigger: "rss.trigger",
	} {
		if !slices.Contains(reg.Discover(kind), name) {
			t.Errorf("expected the rss pack to register %s, got %v", name, reg.Discover(kind))
		}
	}

	if err := registerBuiltins(reg); err == nil {
		t.Error("registering the builtins twice must fail")
	}
}

func TestPrintSummary(t *testing.T) {
	cfg := &config.Config{Tasks: []config.Task{
		{Name: "digest", Schedule: &config.Schedule{Cron: "30 10 * * *"}},
		{Name: "rates", Schedule: &config.Schedule{Every: "15m"}},
		{Name: "launch", Schedule: &config.Schedule{At: "2026-12-01T09:00:00Z"}},
		{Name: "repo-watch", Pack: "rss", Trigger: &config.TriggerSpec{}},
	}}

	now := time.Date(2026, 2, 16, 10, 0, 0, 0, time.Local)
	var out bytes.Buffer
	if err := printSummary(&out, cfg, now); err != nil {
		t.Fatalf("printSummary: %v", err)
	}

	for _, want := range []string{
		"config OK: 4 tasks (3 scheduled, 1 triggered)",
		`digest: cron "30 10 * * *", next run 2026-02-16 10:30`,
		"rates: every 15m",
		"launch: once at 2026-12-01T09:00:00Z",
		"repo-watch: trigger rss.trigger",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestPrintSummaryRejectsBadCron(t *testing.T) {
	cfg := &config.Config{Tasks: []config.Task{
		{Name: "broken", Schedule: &config.Schedule{Cron: "61 * * * *"}},
	}}
	err := printSummary(io.Discard, cfg, time.Now())
	if err == nil || !strings.Contains(err.Error(), `task "broken"`) {
		t.Errorf("expected a cron validation error, got %v", err)
	}
}

func TestWriteExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briefd.yaml")
	if err := writeExampleConfig(path); err != nil {
		t.Fatalf("writeExampleConfig: %v", err)
	}

	cfg, err := config.Load(path, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("the example config must load cleanly: %v", err)
	}
	if len(cfg.Tasks) == 0 {
		t.Error("the example config should define at least one task")
	}

	if err := writeExampleConfig(path); err == nil || !strings.Contains(err.Error(), "refusing to overwrite") {
		t.Errorf("expected an overwrite refusal, got %v", err)
	}
}

func TestRunOnceUnknownTask(t *testing.T) {
	cfg := &config.Config{Tasks: []config.Task{{Name: "real"}}}
	err := run(context.Background(), cfg, log.New(io.Discard, "", 0), "ghost")
	if err == nil || !strings.Contains(err.Error(), `no task named "ghost"`) {
		t.Errorf("expected an unknown-task error, got %v", err)
	}
}

// TestRunOnceReportsTaskFailure drives the single-run path end to end: a
// task whose LLM host does not exist must fail the run and surface the
// error, with history recording on an in-memory store.
func TestRunOnceReportsTaskFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}

	cfg := &config.Config{
		Defaults: config.Defaults{Retry: config.Retry{MaxAttempts: 1, BackoffFactor: 2}},
		History:  config.History{Path: ":memory:"},
		Tasks: []config.Task{{
			Name:     "doomed",
			Schedule: &config.Schedule{Every: "1h"},
			Content:  &config.PluginRef{Plugin: "static", Params: map[string]any{"text": "hello"}},
			LLM:      &config.PluginRef{Plugin: "ollama", Params: map[string]any{"model": "m", "host": "http://127.0.0.1:1"}},
		}},
	}

	err := run(context.Background(), cfg, log.New(io.Discard, "", 0), "doomed")
	if err == nil || !strings.Contains(err.Error(), `task "doomed"`) {
		t.Errorf("expected the task failure back, got %v", err)
	}
}
