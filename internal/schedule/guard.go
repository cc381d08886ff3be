package schedule

import "sync"

// TaskGuard gives every task name one in-flight slot, so the same task never
// runs twice at once no matter which source started it. Different tasks are
// independent.
type TaskGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewTaskGuard creates an empty guard.
func NewTaskGuard() *TaskGuard {
	return &TaskGuard{inFlight: make(map[string]bool)}
}

// TryBegin claims the slot for task. A false return means a previous run
// still holds it; the caller skips instead of waiting.
func (g *TaskGuard) TryBegin(task string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight[task] {
		return false
	}
	g.inFlight[task] = true
	return true
}

// End releases the slot. Calling End for a task that was never begun is a
// no-op.
func (g *TaskGuard) End(task string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, task)
}
