package chronos

import (
	"fmt"

	"github.com/minisource/chronos/trigger"
)

// TaskBuilder accumulates the configuration for one task before committing
// it with Schedule:
//
//	chronos.NewTask(fn).WithID("nightly-report").WithTrigger(t).Schedule()
type TaskBuilder struct {
	scheduler *Scheduler
	callable  func()
	id        string
	trig      trigger.Trigger
}

// NewTaskOn begins building a task against an explicit Scheduler instance,
// for programs and tests that embed their own Scheduler rather than using
// the process-wide facade (NewTask).
func NewTaskOn(s *Scheduler, callable func()) *TaskBuilder {
	return &TaskBuilder{scheduler: s, callable: callable}
}

// WithID assigns the task's identifier. Omitted, Schedule generates one.
func (b *TaskBuilder) WithID(id string) *TaskBuilder {
	b.id = id
	return b
}

// WithTrigger assigns the task's firing policy. Required before Schedule.
func (b *TaskBuilder) WithTrigger(t trigger.Trigger) *TaskBuilder {
	b.trig = t
	return b
}

// Schedule validates the accumulated configuration and inserts the task
// into the scheduler, returning a handle for subsequent control operations.
func (b *TaskBuilder) Schedule() (*TaskHandle, error) {
	if b.trig == nil {
		return nil, fmt.Errorf("%w: no trigger configured", ErrInvalidTrigger)
	}
	if err := validateTrigger(b.trig); err != nil {
		return nil, err
	}
	return b.scheduler.schedule(b.id, b.callable, b.trig)
}
