package chronos

import "errors"

// Sentinel errors returned to direct callers. Operational errors (pool
// rejection, user callable failure) are never surfaced this way — they are
// contained and reported through the diagnostic sink.
var (
	// ErrInvalidTrigger wraps trigger.ErrInvalid when a malformed trigger
	// reaches Schedule() or Reschedule().
	ErrInvalidTrigger = errors.New("chronos: invalid trigger")

	// ErrDuplicateTaskID is returned when Schedule() is called with an id
	// already present in the scheduler.
	ErrDuplicateTaskID = errors.New("chronos: duplicate task id")

	// ErrTaskNotFound is returned by handle/facade operations on an absent
	// id, except DeleteTask, which returns a bool instead.
	ErrTaskNotFound = errors.New("chronos: task not found")

	// ErrSchedulerStopped is returned by any scheduling operation after
	// Shutdown.
	ErrSchedulerStopped = errors.New("chronos: scheduler stopped")

	// ErrAlreadyInitialized is returned by a second call to
	// InitExecutionPool.
	ErrAlreadyInitialized = errors.New("chronos: execution pool already initialized")
)
