// Package trigger polls condition-based triggers and starts task runs when
// they fire. Every trigger gets its own goroutine with its own cadence;
// firing calls back into the daemon synchronously, so a slow run naturally
// delays that trigger's next poll without affecting the others.
package trigger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
	"github.com/aristath/briefd/internal/events"
)

// Callback runs one task with the payload of the trigger fire.
type Callback func(task config.Task, data map[string]any)

// Manager owns the polling goroutines for all trigger-driven tasks.
type Manager struct {
	registry    *capability.Registry
	bus         *events.Bus
	logger      *log.Logger
	defaultPoll time.Duration
	callback    Callback

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a manager. defaultPoll is the cadence for triggers that
// do not declare their own.
func NewManager(registry *capability.Registry, bus *events.Bus, logger *log.Logger, defaultPoll time.Duration, callback Callback) *Manager {
	return &Manager{
		registry:    registry,
		bus:         bus,
		logger:      logger,
		defaultPoll: defaultPoll,
		callback:    callback,
		stopCh:      make(chan struct{}),
	}
}

// Start resolves every task's trigger and launches its watcher. An
// unresolvable trigger fails startup; a trigger whose Setup fails at runtime
// only disables that one watcher.
func (m *Manager) Start(ctx context.Context, tasks []config.Task) error {
	started := 0
	for _, t := range tasks {
		if t.Trigger == nil {
			continue
		}
		trig, typeName, err := m.buildTrigger(t)
		if err != nil {
			return err
		}

		m.wg.Add(1)
		go m.watch(ctx, t, trig, typeName)
		started++
	}

	m.logger.Printf("trigger manager started (%d triggers)", started)
	return nil
}

// buildTrigger resolves the task's trigger: the pack's own trigger when the
// spec has no type, the named trigger plugin otherwise. Pack triggers see
// the pack params with the trigger params layered on top.
func (m *Manager) buildTrigger(task config.Task) (capability.Trigger, string, error) {
	spec := task.Trigger
	if spec.Type == "" {
		if task.Pack == "" {
			return nil, "", &capability.ConfigError{Task: task.Name, Field: "trigger", Reason: "type required"}
		}
		trig, err := m.registry.LoadPackTrigger(task.Pack, mergeParams(task.Params, spec.Params))
		return trig, capability.PackName(task.Pack, capability.KindTrigger), err
	}

	trig, err := m.registry.LoadTrigger(spec.Type, spec.Params)
	return trig, spec.Type, err
}

func mergeParams(base, overlay map[string]any) map[string]any {
	if len(overlay) == 0 {
		return base
	}
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// watch is one trigger's polling loop.
func (m *Manager) watch(ctx context.Context, task config.Task, trig capability.Trigger, typeName string) {
	defer m.wg.Done()

	if err := trig.Setup(ctx); err != nil {
		m.logger.Printf("ERROR: task %q: trigger %q setup failed, watcher disabled: %v", task.Name, typeName, err)
		return
	}
	defer func() {
		if err := trig.Teardown(); err != nil {
			m.logger.Printf("WARNING: task %q: trigger %q teardown: %v", task.Name, typeName, err)
		}
	}()

	interval := trig.Interval()
	if interval <= 0 {
		interval = m.defaultPoll
	}
	m.logger.Printf("task %q: trigger %q polling every %s", task.Name, typeName, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			fired, err := trig.Check(ctx)
			if err != nil {
				m.logger.Printf("WARNING: task %q: trigger %q check failed: %v", task.Name, typeName, err)
				continue
			}
			if !fired {
				continue
			}

			data := trig.TriggerData()
			m.bus.Publish(events.TriggerFired{TaskName: task.Name, TriggerType: typeName, At: time.Now()})
			m.logger.Printf("task %q: trigger %q fired", task.Name, typeName)
			m.callback(task, data)
		}
	}
}

// Stop ends all watchers and waits up to timeout for them to tear down.
// Safe to call more than once.
func (m *Manager) Stop(timeout time.Duration) {
	m.stopOnce.Do(func() { close(m.stopCh) })

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Printf("trigger manager stopped")
	case <-time.After(timeout):
		m.logger.Printf("WARNING: trigger manager shutdown timed out, watchers still running")
	}
}
