package events

import (
	"time"
)

// Event is the base interface for all events. Topic routes the event on the
// bus and Task names the task the event belongs to, when there is one.
type Event interface {
	Topic() string
	Task() string
}

// Topic constants
const (
	TopicRun     = "run"
	TopicNotify  = "notify"
	TopicTrigger = "trigger"
)

// Run status values carried by RunFinished.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RunStarted is published when a task run begins.
type RunStarted struct {
	RunID    string
	TaskName string
	Source   string // "schedule", "trigger" or "manual"
	At       time.Time
}

func (e RunStarted) Topic() string { return TopicRun }
func (e RunStarted) Task() string  { return e.TaskName }

// RunFinished is published when a task run ends, whatever the outcome.
type RunFinished struct {
	RunID     string
	TaskName  string
	Status    string // StatusSucceeded or StatusFailed
	Err       string // empty on success
	Duration  time.Duration
	Attempted int // notifier deliveries attempted
	Delivered int // notifier deliveries that succeeded
	At        time.Time
}

func (e RunFinished) Topic() string { return TopicRun }
func (e RunFinished) Task() string  { return e.TaskName }

// NotifierResult is published once per notifier invocation during a run.
type NotifierResult struct {
	RunID     string
	TaskName  string
	Notifier  string
	Delivered bool
	Err       string // empty when the notifier did not error
	At        time.Time
}

func (e NotifierResult) Topic() string { return TopicNotify }
func (e NotifierResult) Task() string  { return e.TaskName }

// TriggerFired is published when a trigger condition is observed.
type TriggerFired struct {
	TaskName    string
	TriggerType string
	At          time.Time
}

func (e TriggerFired) Topic() string { return TopicTrigger }
func (e TriggerFired) Task() string  { return e.TaskName }
