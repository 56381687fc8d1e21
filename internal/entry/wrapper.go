// Package entry holds the scheduler-internal state the facade never
// exposes directly: the wrapped callable, the mutable task record, and the
// min-heap ordering entries by next firing.
package entry

import (
	"fmt"
	"time"

	"github.com/minisource/chronos/diagnostic"
)

// Wrapper runs a user callable so that a panic never escapes to the
// scheduler's coordinator goroutine. It is stateless beyond the bound
// callable and task id — safe to call concurrently from any number of pool
// workers.
type Wrapper struct {
	TaskID   string
	Callable func()
	Sink     diagnostic.Sink
}

// NewWrapper builds a Wrapper. sink must be non-nil; callers pass the
// scheduler's current diagnostic sink at submission time.
func NewWrapper(taskID string, callable func(), sink diagnostic.Sink) *Wrapper {
	return &Wrapper{TaskID: taskID, Callable: callable, Sink: sink}
}

// Run executes the wrapped callable, recovering any panic and reporting it
// (formatted with the task id and occurrence time) to the diagnostic sink
// instead of letting it propagate.
func (w *Wrapper) Run() {
	occurredAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.Sink.Log(diagnostic.LevelError, "task callable panicked", map[string]any{
				"task_id":     w.TaskID,
				"occurred_at": occurredAt,
				"panic":       fmt.Sprintf("%v", r),
			})
		}
	}()

	w.Callable()
}
