package chronos

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minisource/chronos/diagnostic"
	"github.com/minisource/chronos/internal/entry"
	"github.com/minisource/chronos/pool"
	"github.com/minisource/chronos/trigger"
)

type schedulerState int

const (
	schedulerCreated schedulerState = iota
	schedulerRunning
	schedulerStopped
)

// Scheduler is a time-ordered min-heap of task entries, one mutex guarding
// the heap and the id index, and a single coordinator goroutine that sleeps
// until the earliest next fire and dispatches to an ExecutionPool. Handle
// operations acquire the same mutex the coordinator uses; the mutex is
// never held across a pool submission.
//
// Most callers use the package-level facade (NewTask, GetTask, ...), which
// is backed by one process-wide Scheduler. Constructing a Scheduler
// directly is useful for tests and for embedding multiple independent
// schedulers in one process.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]*entry.Entry
	heap  entry.Heap

	pool pool.Pool
	sink diagnostic.Sink

	state schedulerState

	// wakeupCh and stopCh stand in for a condvar-with-timeout: the
	// coordinator selects on a per-iteration timer alongside these channels
	// instead, the same shape robfig/cron's own run loop uses for its
	// timer/add/stop select.
	wakeupCh chan struct{}
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler constructs a Scheduler bound to the given execution pool and
// diagnostic sink. Call Start before scheduling any task.
func NewScheduler(p pool.Pool, sink diagnostic.Sink) *Scheduler {
	if sink == nil {
		sink = diagnostic.NewStderrSink()
	}
	return &Scheduler{
		tasks:    make(map[string]*entry.Entry),
		pool:     p,
		sink:     sink,
		wakeupCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the coordinator goroutine. Idempotent: calling Start on an
// already-running or already-stopped Scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.state != schedulerCreated {
		s.mu.Unlock()
		return
	}
	s.state = schedulerRunning
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
}

// Shutdown stops the coordinator, clears the heap, and tears down the
// execution pool. If waitForRunning is true the pool is asked to drain
// in-flight work before Shutdown returns; otherwise the pool is released
// without waiting. No in-flight callable is forcibly interrupted either way.
func (s *Scheduler) Shutdown(waitForRunning bool) {
	s.mu.Lock()
	if s.state == schedulerStopped {
		s.mu.Unlock()
		return
	}
	wasRunning := s.state == schedulerRunning
	s.state = schedulerStopped

	for _, e := range s.tasks {
		e.HeapIndex = -1
	}
	s.heap = nil
	s.tasks = make(map[string]*entry.Entry)
	p := s.pool
	s.mu.Unlock()

	if wasRunning {
		close(s.stopCh)
		s.wg.Wait()
	}

	if p != nil {
		p.Shutdown(waitForRunning)
	}
}

// IsRunning reports whether the coordinator is alive.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == schedulerRunning
}

func (s *Scheduler) wake() {
	select {
	case s.wakeupCh <- struct{}{}:
	default:
	}
}

// run is the coordinator loop: sleep until the earliest NextFire, wake early
// on a schedule change, and dispatch whatever is due, implemented with a
// timer + channel select instead of a condvar timeout.
func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if s.state != schedulerRunning {
			s.mu.Unlock()
			return
		}
		next := s.heap.Peek()
		var nextFire time.Time
		if next != nil {
			nextFire = *next.NextFire
		}
		s.mu.Unlock()

		if next == nil {
			select {
			case <-s.wakeupCh:
				continue
			case <-s.stopCh:
				return
			}
		}

		delta := time.Until(nextFire)
		if delta < 0 {
			delta = 0
		}
		timer := time.NewTimer(delta)

		select {
		case <-timer.C:
		case <-s.wakeupCh:
			if !timer.Stop() {
				<-timer.C
			}
		case <-s.stopCh:
			timer.Stop()
			return
		}

		s.dispatchDue()
	}
}

type fireJob struct {
	id       string
	callable func()
}

// dispatchDue pops and advances every entry whose NextFire is due, then
// releases the mutex before submitting any wrapped callable to the pool —
// the mutex must never be held across a pool submission.
func (s *Scheduler) dispatchDue() {
	now := time.Now()

	s.mu.Lock()
	var due []fireJob
	for {
		e := s.heap.Peek()
		if e == nil || e.NextFire.After(now) {
			break
		}
		e = s.heap.PopEarliest()

		prev := e.NextFire
		e.PrevFire = prev
		if e.FiringsRemaining != entry.Unlimited {
			e.FiringsRemaining--
		}

		next, ok := e.Trigger.NextFireAfter(prev, now)
		e.NextFire = next

		if ok && e.FiringsRemaining != 0 {
			s.heap.PushEntry(e)
		} else {
			delete(s.tasks, e.ID)
		}

		due = append(due, fireJob{id: e.ID, callable: e.Callable})
	}
	sink := s.sink
	p := s.pool
	s.mu.Unlock()

	for _, job := range due {
		w := entry.NewWrapper(job.id, job.callable, sink)
		if !p.Submit(w.Run) {
			sink.Log(diagnostic.LevelWarn, "execution pool rejected submission; firing skipped", map[string]any{
				"task_id": job.id,
			})
		}
	}
}

// schedule builds and inserts a new entry. id == "" assigns an opaque
// identifier via google/uuid.
func (s *Scheduler) schedule(id string, callable func(), t trigger.Trigger) (*TaskHandle, error) {
	s.mu.Lock()

	if s.state == schedulerStopped {
		s.mu.Unlock()
		return nil, ErrSchedulerStopped
	}

	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.tasks[id]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTaskID, id)
	}

	now := time.Now()
	next, ok := t.NextFireAfter(nil, now)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: trigger produced no firing", ErrInvalidTrigger)
	}

	e := entry.NewEntry(id, callable, t, firingsRemainingFor(t))
	e.NextFire = next
	s.tasks[id] = e
	s.heap.PushEntry(e)
	lowered := s.heap.Peek() == e

	s.mu.Unlock()

	if lowered {
		s.wake()
	}

	return &TaskHandle{id: id, scheduler: s}, nil
}

func (s *Scheduler) exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// delete removes id idempotently: the first call returns true, every
// subsequent call (absent id) returns false.
func (s *Scheduler) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[id]
	if !ok {
		return false
	}
	if e.Status == entry.Scheduled {
		s.heap.Remove(e)
	}
	delete(s.tasks, id)
	return true
}

// pause removes the entry from the heap without losing its NextFire.
// Pausing an already-paused entry is a no-op.
func (s *Scheduler) pause(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if e.Status == entry.Paused {
		return nil
	}
	s.heap.Remove(e)
	e.Status = entry.Paused
	return nil
}

// resume reinserts a paused entry. If its preserved NextFire has already
// passed, it is clamped to now so the entry fires exactly once to catch up
// (coalesced), rather than racing the normal fire-once-and-catch-up policy
// and replaying every interval missed while paused.
func (s *Scheduler) resume(id string) error {
	s.mu.Lock()

	e, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if e.Status == entry.Scheduled {
		s.mu.Unlock()
		return nil
	}
	e.Status = entry.Scheduled

	now := time.Now()
	if e.NextFire != nil && !e.NextFire.After(now) {
		e.NextFire = &now
	}

	s.heap.PushEntry(e)
	lowered := s.heap.Peek() == e
	s.mu.Unlock()

	if lowered {
		s.wake()
	}
	return nil
}

// triggerNow dispatches one off-schedule firing without touching NextFire
// or PrevFire.
func (s *Scheduler) triggerNow(id string) error {
	s.mu.Lock()
	e, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	callable := e.Callable
	sink := s.sink
	p := s.pool
	s.mu.Unlock()

	w := entry.NewWrapper(id, callable, sink)
	if !p.Submit(w.Run) {
		sink.Log(diagnostic.LevelWarn, "execution pool rejected triggerNow submission", map[string]any{
			"task_id": id,
		})
	}
	return nil
}

func (s *Scheduler) isPaused(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return false, ErrTaskNotFound
	}
	return e.Status == entry.Paused, nil
}

func (s *Scheduler) nextFireTime(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok || e.NextFire == nil {
		return time.Time{}, false
	}
	return *e.NextFire, true
}

func (s *Scheduler) prevFireTime(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok || e.PrevFire == nil {
		return time.Time{}, false
	}
	return *e.PrevFire, true
}

// RescheduleOn replaces id's trigger on this specific Scheduler instance,
// for callers embedding their own Scheduler rather than the process-wide
// facade (see package-level Reschedule).
func (s *Scheduler) RescheduleOn(id string, t trigger.Trigger) error {
	if err := validateTrigger(t); err != nil {
		return err
	}
	return s.reschedule(id, t)
}

// reschedule atomically replaces an entry's trigger and recomputes its
// NextFire from scratch.
func (s *Scheduler) reschedule(id string, t trigger.Trigger) error {
	now := time.Now()
	next, ok := t.NextFireAfter(nil, now)
	if !ok {
		return fmt.Errorf("%w: trigger produced no firing", ErrInvalidTrigger)
	}

	s.mu.Lock()
	e, exists := s.tasks[id]
	if !exists {
		s.mu.Unlock()
		return ErrTaskNotFound
	}

	wasScheduled := e.Status == entry.Scheduled
	if wasScheduled {
		s.heap.Remove(e)
	}

	e.Trigger = t
	e.FiringsRemaining = firingsRemainingFor(t)
	e.NextFire = next
	e.PrevFire = nil

	var lowered bool
	if wasScheduled {
		s.heap.PushEntry(e)
		lowered = s.heap.Peek() == e
	}
	s.mu.Unlock()

	if lowered {
		s.wake()
	}
	return nil
}

// AllTasks returns one handle per currently known task on this Scheduler
// instance, ordered by id. See package-level GetAllTasks for the
// process-wide facade equivalent.
func (s *Scheduler) AllTasks() []*TaskHandle {
	return s.allHandles()
}

// allHandles returns one handle per currently-known task, ordered by id for
// determinism.
func (s *Scheduler) allHandles() []*TaskHandle {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)

	handles := make([]*TaskHandle, len(ids))
	for i, id := range ids {
		handles[i] = &TaskHandle{id: id, scheduler: s}
	}
	return handles
}

// firingsRemainingFor derives a total-firings counter from the trigger kind:
// Interval with a finite RepeatCount(n) owes n+1 total firings, Delay owes
// exactly 1, everything else (infinite Interval, Cron) is Unlimited and
// relies solely on the trigger itself returning "no more firings".
func firingsRemainingFor(t trigger.Trigger) int {
	switch tt := t.(type) {
	case *trigger.IntervalTrigger:
		if tt.RepeatCount() == -1 {
			return entry.Unlimited
		}
		return tt.RepeatCount() + 1
	case *trigger.DelayTrigger:
		return 1
	default:
		return entry.Unlimited
	}
}

// validateTrigger runs construction-time validation for trigger kinds whose
// Validate isn't already enforced by their constructor (Cron validates
// itself in NewCron; Interval/Delay expose Validate for the builder to call
// just before scheduling).
func validateTrigger(t trigger.Trigger) error {
	switch tt := t.(type) {
	case *trigger.IntervalTrigger:
		if err := tt.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTrigger, err)
		}
	case *trigger.DelayTrigger:
		if err := tt.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTrigger, err)
		}
	}
	return nil
}
