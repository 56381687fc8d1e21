package entry

import (
	"time"

	"github.com/minisource/chronos/trigger"
)

// Status is the entry-level state machine: a scheduled entry is either live
// in the heap or paused out of it.
type Status int

const (
	Scheduled Status = iota
	Paused
)

// Unlimited marks FiringsRemaining as having no bound (Interval with
// RepeatCount() == -1, or any trigger kind that doesn't track a count).
const Unlimited = -1

// Entry is the scheduler-owned, mutex-guarded record for one scheduled
// task. It is never mutated except by code already holding the scheduler's
// single mutex.
type Entry struct {
	ID       string
	Callable func()
	Trigger  trigger.Trigger

	Status Status

	NextFire *time.Time
	PrevFire *time.Time

	// FiringsRemaining is Unlimited, or the total number of firings still
	// owed to this entry, counting the one about to be dispatched. It is
	// decremented once per dispatch; the entry is removed once it reaches
	// zero or the trigger itself reports no further instant, whichever
	// comes first. Interval with RepeatCount() == n starts this at n+1;
	// Delay starts it at 1; Cron and infinite Interval leave it Unlimited.
	FiringsRemaining int

	// HeapIndex is maintained by container/heap for O(log n) arbitrary
	// removal; -1 while the entry is not in the heap (paused, or terminally
	// removed).
	HeapIndex int
}

// NewEntry builds an Entry with NextFire left unset — callers must compute
// the first firing via Trigger.NextFireAfter(nil, now) and assign it before
// inserting the entry into the scheduler's heap.
func NewEntry(id string, callable func(), t trigger.Trigger, firingsRemaining int) *Entry {
	return &Entry{
		ID:               id,
		Callable:         callable,
		Trigger:          t,
		Status:           Scheduled,
		FiringsRemaining: firingsRemaining,
		HeapIndex:        -1,
	}
}

// Exhausted reports whether the entry has no firings left to give, i.e. its
// repeat counter reached zero. Unlimited entries are never exhausted by
// this check alone — a trigger returning "no more firings" is what actually
// terminates them.
func (e *Entry) Exhausted() bool {
	return e.FiringsRemaining == 0
}
