package chronos_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minisource/chronos"
	"github.com/minisource/chronos/diagnostic"
	"github.com/minisource/chronos/pool"
	"github.com/minisource/chronos/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *chronos.Scheduler {
	t.Helper()
	s := chronos.NewScheduler(pool.NewGoroutinePool(), diagnostic.NewStderrSink())
	s.Start()
	t.Cleanup(func() { s.Shutdown(true) })
	return s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestSchedule_IntervalWithRepeatCountFiresExactlyNPlusOneTimes(t *testing.T) {
	s := newTestScheduler(t)
	var count int32

	handle, err := chronos.NewTaskOn(s, func() { atomic.AddInt32(&count, 1) }).
		WithTrigger(trigger.NewInterval(5*time.Millisecond).WithRepeatCount(3)).
		Schedule()
	require.NoError(t, err)
	require.NotNil(t, handle)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) == 4 })
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(4), atomic.LoadInt32(&count), "must fire exactly repeatCount+1 times, never more")
	assert.False(t, handle.Exists(), "entry must be removed once its firings are exhausted")
}

func TestSchedule_DelayFiresOnceThenRemovesItself(t *testing.T) {
	s := newTestScheduler(t)
	var count int32

	handle, err := chronos.NewTaskOn(s, func() { atomic.AddInt32(&count, 1) }).
		WithTrigger(trigger.NewDelay(5 * time.Millisecond)).
		Schedule()
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) == 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
	assert.False(t, handle.Exists())
}

func TestSchedule_RejectsDuplicateID(t *testing.T) {
	s := newTestScheduler(t)

	_, err := chronos.NewTaskOn(s, func() {}).
		WithID("dup").
		WithTrigger(trigger.NewDelay(time.Hour)).
		Schedule()
	require.NoError(t, err)

	_, err = chronos.NewTaskOn(s, func() {}).
		WithID("dup").
		WithTrigger(trigger.NewDelay(time.Hour)).
		Schedule()
	require.ErrorIs(t, err, chronos.ErrDuplicateTaskID)
}

func TestSchedule_RejectsInvalidTrigger(t *testing.T) {
	s := newTestScheduler(t)

	_, err := chronos.NewTaskOn(s, func() {}).
		WithTrigger(trigger.NewInterval(0)).
		Schedule()
	require.ErrorIs(t, err, chronos.ErrInvalidTrigger)
}

func TestSchedule_AfterShutdownIsRejected(t *testing.T) {
	s := chronos.NewScheduler(pool.NewGoroutinePool(), diagnostic.NewStderrSink())
	s.Start()
	s.Shutdown(true)

	_, err := chronos.NewTaskOn(s, func() {}).
		WithTrigger(trigger.NewDelay(time.Hour)).
		Schedule()
	require.ErrorIs(t, err, chronos.ErrSchedulerStopped)
}

func TestPause_StopsFiringUntilResumed(t *testing.T) {
	s := newTestScheduler(t)
	var count int32

	handle, err := chronos.NewTaskOn(s, func() { atomic.AddInt32(&count, 1) }).
		WithTrigger(trigger.NewInterval(5 * time.Millisecond)).
		Schedule()
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) >= 1 })
	require.NoError(t, handle.Pause())

	paused, err := handle.IsPaused()
	require.NoError(t, err)
	assert.True(t, paused)

	snapshot := atomic.LoadInt32(&count)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, snapshot, atomic.LoadInt32(&count), "a paused entry must not fire")

	require.NoError(t, handle.Resume())
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) > snapshot })
}

func TestResume_PastDueCoalescesIntoOneFiring(t *testing.T) {
	s := newTestScheduler(t)
	var count int32

	handle, err := chronos.NewTaskOn(s, func() { atomic.AddInt32(&count, 1) }).
		WithTrigger(trigger.NewInterval(40 * time.Millisecond)).
		Schedule()
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) >= 1 })
	require.NoError(t, handle.Pause())

	// Paused long enough that many intervals have notionally elapsed.
	time.Sleep(200 * time.Millisecond)

	before := atomic.LoadInt32(&count)
	require.NoError(t, handle.Resume())

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) == before+1 })
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, before+1, atomic.LoadInt32(&count), "resume must not replay every missed interval")
}

func TestTriggerNow_DoesNotDisturbRegularSchedule(t *testing.T) {
	s := newTestScheduler(t)
	var count int32

	handle, err := chronos.NewTaskOn(s, func() { atomic.AddInt32(&count, 1) }).
		WithTrigger(trigger.NewInterval(50 * time.Millisecond).WithInitialDelay(time.Hour)).
		Schedule()
	require.NoError(t, err)

	before, ok := handle.NextFireTime()
	require.True(t, ok)

	require.NoError(t, handle.TriggerNow())
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&count) >= 1 })

	after, ok := handle.NextFireTime()
	require.True(t, ok)
	assert.Equal(t, before, after, "triggerNow must not mutate NextFire")
}

func TestReschedule_ReplacesTriggerAndRecomputesNextFire(t *testing.T) {
	s := newTestScheduler(t)

	handle, err := chronos.NewTaskOn(s, func() {}).
		WithTrigger(trigger.NewDelay(time.Hour)).
		Schedule()
	require.NoError(t, err)

	err = s.RescheduleOn(handle.ID(), trigger.NewInterval(5*time.Millisecond))
	require.NoError(t, err)

	next, ok := handle.NextFireTime()
	require.True(t, ok)
	assert.True(t, next.Before(time.Now().Add(time.Second)))
}

func TestReschedule_UnknownIDReturnsNotFound(t *testing.T) {
	s := newTestScheduler(t)
	err := s.RescheduleOn("does-not-exist", trigger.NewDelay(time.Second))
	require.ErrorIs(t, err, chronos.ErrTaskNotFound)
}

func TestDelete_IsIdempotent(t *testing.T) {
	s := newTestScheduler(t)

	handle, err := chronos.NewTaskOn(s, func() {}).
		WithTrigger(trigger.NewDelay(time.Hour)).
		Schedule()
	require.NoError(t, err)

	assert.True(t, handle.Delete())
	assert.False(t, handle.Delete())
	assert.False(t, handle.Exists())
}

func TestPanicInCallableIsContainedAndReported(t *testing.T) {
	var events []diagnostic.Level
	var mu sync.Mutex
	sink := diagnosticFunc(func(level diagnostic.Level, msg string, fields map[string]any) {
		mu.Lock()
		events = append(events, level)
		mu.Unlock()
	})

	s := chronos.NewScheduler(pool.NewGoroutinePool(), sink)
	s.Start()
	t.Cleanup(func() { s.Shutdown(true) })

	var survivorFired int32
	_, err := chronos.NewTaskOn(s, func() { panic("boom") }).
		WithTrigger(trigger.NewDelay(5 * time.Millisecond)).
		Schedule()
	require.NoError(t, err)

	_, err = chronos.NewTaskOn(s, func() { atomic.AddInt32(&survivorFired, 1) }).
		WithTrigger(trigger.NewDelay(5 * time.Millisecond)).
		Schedule()
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&survivorFired) == 1 })

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events, "a recovered panic must be reported to the diagnostic sink")
	assert.Equal(t, diagnostic.LevelError, events[0])
}

func TestGetAllTasks_OrderedByID(t *testing.T) {
	s := newTestScheduler(t)

	for _, id := range []string{"c", "a", "b"} {
		_, err := chronos.NewTaskOn(s, func() {}).
			WithID(id).
			WithTrigger(trigger.NewDelay(time.Hour)).
			Schedule()
		require.NoError(t, err)
	}

	handles := s.AllTasks()
	require.Len(t, handles, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{handles[0].ID(), handles[1].ID(), handles[2].ID()})
}

func TestShutdown_ClearsPendingEntriesAndRejectsFurtherUse(t *testing.T) {
	s := chronos.NewScheduler(pool.NewGoroutinePool(), diagnostic.NewStderrSink())
	s.Start()

	handle, err := chronos.NewTaskOn(s, func() {}).
		WithTrigger(trigger.NewDelay(time.Hour)).
		Schedule()
	require.NoError(t, err)

	s.Shutdown(true)

	assert.False(t, handle.Exists())
	_, err = chronos.NewTaskOn(s, func() {}).WithTrigger(trigger.NewDelay(time.Hour)).Schedule()
	require.ErrorIs(t, err, chronos.ErrSchedulerStopped)
}

type diagnosticFunc func(diagnostic.Level, string, map[string]any)

func (f diagnosticFunc) Log(level diagnostic.Level, msg string, fields map[string]any) {
	f(level, msg, fields)
}
