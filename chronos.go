// Package chronos is an in-process task scheduler: callables paired with a
// Trigger (interval, one-shot delay, or cron expression) dispatched through
// a pluggable ExecutionPool by a single coordinator goroutine.
//
// Most programs use the package-level facade below, backed by one
// process-wide Scheduler created lazily on first use:
//
//	nightly, err := trigger.NewCron("0 0 2 ? * *")
//	if err != nil {
//		return err
//	}
//	handle, err := chronos.NewTask(func() { sendReport() }).
//		WithID("nightly-report").
//		WithTrigger(nightly).
//		Schedule()
//
// Programs that need more than one independent scheduler, or tighter
// control over its lifecycle, can construct a *Scheduler directly with
// NewScheduler instead of using the facade.
package chronos

import (
	"sync"

	"github.com/minisource/chronos/diagnostic"
	"github.com/minisource/chronos/pool"
	"github.com/minisource/chronos/trigger"
)

var (
	facadeMu        sync.Mutex
	facadeOnce      sync.Once
	facadeSched     *Scheduler
	facadePool      pool.Pool
	facadeSink      diagnostic.Sink = diagnostic.NewStderrSink()
	poolInitialized bool
)

// defaultScheduler returns the process-wide Scheduler, constructing and
// starting it on first use with whatever pool/sink were installed via
// InitExecutionPool/SetDiagnosticSink beforehand.
func defaultScheduler() *Scheduler {
	facadeOnce.Do(func() {
		facadeMu.Lock()
		p := facadePool
		sink := facadeSink
		facadeMu.Unlock()

		if p == nil {
			p = pool.NewGoroutinePool()
		}

		s := NewScheduler(p, sink)
		s.Start()

		facadeMu.Lock()
		facadeSched = s
		facadeMu.Unlock()
	})

	facadeMu.Lock()
	defer facadeMu.Unlock()
	return facadeSched
}

// InitExecutionPool installs p as the process-wide facade's execution pool.
// Must be called before the facade's first use (the first NewTask, HasTask,
// GetTask, ... call); a call after that, or a second call, returns
// ErrAlreadyInitialized. Programs that never call this get an unbounded
// GoroutinePool.
func InitExecutionPool(p pool.Pool) error {
	facadeMu.Lock()
	defer facadeMu.Unlock()

	if facadeSched != nil || poolInitialized {
		return ErrAlreadyInitialized
	}
	facadePool = p
	poolInitialized = true
	return nil
}

// SetDiagnosticSink installs the sink the process-wide facade reports
// operational events to (pool rejection, recovered panics). Like
// InitExecutionPool, only effective before the facade's first use; after
// that it is silently ignored, since the coordinator has already captured
// the previous sink.
func SetDiagnosticSink(sink diagnostic.Sink) {
	facadeMu.Lock()
	defer facadeMu.Unlock()

	if facadeSched == nil {
		facadeSink = sink
	}
}

// NewTask begins building a task that invokes callable on each firing.
func NewTask(callable func()) *TaskBuilder {
	return &TaskBuilder{scheduler: defaultScheduler(), callable: callable}
}

// HasTask reports whether id is currently scheduled (paused tasks count).
func HasTask(id string) bool {
	return defaultScheduler().exists(id)
}

// DeleteTask removes id. Returns false if it was already absent.
func DeleteTask(id string) bool {
	return defaultScheduler().delete(id)
}

// Reschedule atomically replaces id's trigger, recomputing its NextFire
// from the new trigger as of now. Returns ErrTaskNotFound if id is absent.
func Reschedule(id string, t trigger.Trigger) error {
	if err := validateTrigger(t); err != nil {
		return err
	}
	return defaultScheduler().reschedule(id, t)
}

// GetTask returns a handle to id, or ErrTaskNotFound if it isn't scheduled.
func GetTask(id string) (*TaskHandle, error) {
	s := defaultScheduler()
	if !s.exists(id) {
		return nil, ErrTaskNotFound
	}
	return &TaskHandle{id: id, scheduler: s}, nil
}

// GetAllTasks returns a handle per currently known task, ordered by id.
func GetAllTasks() []*TaskHandle {
	return defaultScheduler().allHandles()
}

// IsRunning reports whether the process-wide facade's coordinator is alive.
// Used by internal/httpapi's health endpoints; false if the facade was
// never used.
func IsRunning() bool {
	facadeMu.Lock()
	s := facadeSched
	facadeMu.Unlock()

	return s != nil && s.IsRunning()
}

// Shutdown stops the process-wide facade's coordinator and tears down its
// execution pool. See Scheduler.Shutdown for the waitForRunning semantics.
// A no-op if the facade was never used.
func Shutdown(waitForRunning bool) {
	facadeMu.Lock()
	s := facadeSched
	facadeMu.Unlock()

	if s != nil {
		s.Shutdown(waitForRunning)
	}
}
