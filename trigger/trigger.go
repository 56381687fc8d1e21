// Package trigger implements the firing policies chronos schedules tasks
// against: fixed interval, one-shot delay, and six-field cron expressions.
//
// A Trigger is configured through its constructor and With* methods, which
// modify the receiver in place and return it. The scheduler itself never
// modifies a Trigger: the only operation it uses is NextFireAfter, which
// computes the next firing instant from the previous firing (if any) and the
// current time, without side effects.
package trigger

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is wrapped by every trigger construction error.
var ErrInvalid = errors.New("trigger: invalid configuration")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Trigger computes the next firing instant for a scheduled task.
//
// previous is nil before the task has ever fired. NextFireAfter returns
// (instant, true) when another firing is due, or (nil, false) when the
// trigger has no more firings (a one-shot delay already fired, or a cron
// expression with no future match). An interval trigger always returns an
// instant; its repeat count is enforced by the scheduler's per-task
// remaining-firings counter.
type Trigger interface {
	NextFireAfter(previous *time.Time, now time.Time) (*time.Time, bool)
}
