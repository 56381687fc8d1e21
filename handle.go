package chronos

import "time"

// TaskHandle is the caller-facing reference returned by Schedule, GetTask
// and GetAllTasks. It carries no state of its own beyond the task id; every
// operation is forwarded to the owning Scheduler under its single mutex.
type TaskHandle struct {
	id        string
	scheduler *Scheduler
}

// ID returns the task's identifier, either caller-supplied via WithID or
// generated by google/uuid at Schedule time.
func (h *TaskHandle) ID() string {
	return h.id
}

// Pause removes the task from the firing schedule without losing its
// pending NextFire. Returns ErrTaskNotFound if the task no longer exists.
func (h *TaskHandle) Pause() error {
	return h.scheduler.pause(h.id)
}

// Resume reinserts a paused task. If its NextFire has already passed while
// paused, it fires once (coalesced) and then resumes its normal cadence.
// Returns ErrTaskNotFound if the task no longer exists.
func (h *TaskHandle) Resume() error {
	return h.scheduler.resume(h.id)
}

// Delete removes the task permanently. Returns false if the task was
// already absent; idempotent beyond the first call.
func (h *TaskHandle) Delete() bool {
	return h.scheduler.delete(h.id)
}

// TriggerNow dispatches one off-schedule firing immediately, leaving the
// task's regular NextFire/PrevFire untouched.
func (h *TaskHandle) TriggerNow() error {
	return h.scheduler.triggerNow(h.id)
}

// Exists reports whether the task is still known to the scheduler.
func (h *TaskHandle) Exists() bool {
	return h.scheduler.exists(h.id)
}

// IsPaused reports whether the task is currently paused.
func (h *TaskHandle) IsPaused() (bool, error) {
	return h.scheduler.isPaused(h.id)
}

// NextFireTime returns the task's next scheduled instant, or false if the
// scheduler no longer knows the task. A paused task reports the NextFire it
// kept when it was paused.
func (h *TaskHandle) NextFireTime() (time.Time, bool) {
	return h.scheduler.nextFireTime(h.id)
}

// PreviousFireTime returns the instant of the task's last dispatch, or
// false if it has never fired.
func (h *TaskHandle) PreviousFireTime() (time.Time, bool) {
	return h.scheduler.prevFireTime(h.id)
}
