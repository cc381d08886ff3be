package history

import (
	"context"
	"log"
	"time"

	"github.com/aristath/briefd/internal/events"
)

// Recorder consumes run events from the bus and persists them.
// Persistence failures are logged and do not affect task runs.
type Recorder struct {
	store  Store
	logger *log.Logger
	done   chan struct{}
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, logger *log.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start subscribes to run events and consumes them until the bus closes.
func (r *Recorder) Start(bus *events.Bus) {
	ch := bus.Subscribe(events.TopicRun, 256)

	go func() {
		defer close(r.done)
		for e := range ch {
			r.record(e)
		}
	}()
}

// Stop waits for the recorder goroutine to drain and exit.
// The bus must be closed first.
func (r *Recorder) Stop() {
	<-r.done
}

func (r *Recorder) record(e events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch ev := e.(type) {
	case events.RunStarted:
		run := Run{
			ID:        ev.RunID,
			TaskName:  ev.TaskName,
			Source:    ev.Source,
			Status:    StatusRunning,
			StartedAt: ev.At,
		}
		if err := r.store.RecordStart(ctx, run); err != nil {
			r.logger.Printf("WARNING: recording run start for task %q: %v", ev.TaskName, err)
		}

	case events.RunFinished:
		if err := r.store.RecordFinish(ctx, ev.RunID, ev.Status, ev.Err, ev.Attempted, ev.Delivered); err != nil {
			r.logger.Printf("WARNING: recording run finish for task %q: %v", ev.TaskName, err)
		}
	}
}
