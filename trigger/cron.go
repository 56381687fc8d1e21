package trigger

import (
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronFieldParser accepts a six-field wire format: second minute hour
// dayOfMonth month dayOfWeek, with "?" accepted on day fields. Seconds are
// mandatory — no five-field shorthand, no "@every"/"@daily" descriptors.
var cronFieldParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// CronTrigger fires according to a six-field calendar expression evaluated
// in a fixed time zone. Infinite firings unless the expression yields no
// future match (e.g. "29 2" in a non-leap year run forever, but a schedule
// constrained entirely to an impossible combination returns no further
// firing).
type CronTrigger struct {
	expression string
	loc        *time.Location
	schedule   cron.Schedule
}

// NewCron parses expression once, in UTC by default. Use WithZone to pick a
// different zone before the trigger is ever evaluated.
func NewCron(expression string) (*CronTrigger, error) {
	t := &CronTrigger{expression: expression, loc: time.UTC}
	if err := t.parse(); err != nil {
		return nil, err
	}
	return t, nil
}

// WithZone sets the time zone the expression is evaluated in. Re-parses the
// expression is unnecessary (the parsed schedule is zone-agnostic; only the
// instant fed into it is converted), so WithZone is safe to call any time
// before the trigger starts firing.
func (t *CronTrigger) WithZone(loc *time.Location) *CronTrigger {
	if loc == nil {
		loc = time.UTC
	}
	t.loc = loc
	return t
}

// Expression returns the original cron expression text.
func (t *CronTrigger) Expression() string {
	return t.expression
}

func (t *CronTrigger) parse() error {
	normalized, err := normalizeCronExpression(t.expression)
	if err != nil {
		return err
	}
	schedule, err := cronFieldParser.Parse(normalized)
	if err != nil {
		return invalidf("cron trigger: malformed expression %q: %v", t.expression, err)
	}
	t.schedule = schedule
	return nil
}

// NextFireAfter implements Trigger: the smallest instant strictly greater
// than max(previous, now), evaluated in the trigger's zone.
func (t *CronTrigger) NextFireAfter(previous *time.Time, now time.Time) (*time.Time, bool) {
	after := now
	if previous != nil && previous.After(after) {
		after = *previous
	}

	next := t.schedule.Next(after.In(t.loc))
	if next.IsZero() {
		return nil, false
	}
	return &next, true
}

// normalizeCronExpression adapts the accepted wire format to robfig/cron/v3's
// expectations: "?" is accepted on day-of-month/day-of-week as a synonym for
// "*" (robfig's parser does not special-case "?", so it is rewritten before
// parsing), and weekday numbers are taken as 1-7/Sunday=1 rather than the
// library's native 0-6/Sunday=0, so the day-of-week field is remapped.
func normalizeCronExpression(expr string) (string, error) {
	fields := strings.Fields(expr)
	if len(fields) != 6 {
		return "", invalidf("cron trigger: expected 6 fields (second minute hour dayOfMonth month dayOfWeek), got %d in %q", len(fields), expr)
	}

	fields[3] = replaceQuestionMark(fields[3])
	fields[5] = replaceQuestionMark(fields[5])

	remappedDow, err := remapDayOfWeek(fields[5])
	if err != nil {
		return "", err
	}
	fields[5] = remappedDow

	return strings.Join(fields, " "), nil
}

func replaceQuestionMark(field string) string {
	if field == "?" {
		return "*"
	}
	return field
}

// remapDayOfWeek converts the accepted 1=Sunday..7=Saturday numbering to
// robfig/cron's native 0=Sunday..6=Saturday, leaving wildcards, lists,
// ranges and steps intact.
func remapDayOfWeek(field string) (string, error) {
	parts := strings.Split(field, ",")
	for i, part := range parts {
		remapped, err := remapDayOfWeekToken(part)
		if err != nil {
			return "", err
		}
		parts[i] = remapped
	}
	return strings.Join(parts, ","), nil
}

func remapDayOfWeekToken(token string) (string, error) {
	base, step, hasStep := strings.Cut(token, "/")

	if base == "*" {
		if hasStep {
			return base + "/" + step, nil
		}
		return base, nil
	}

	lo, hi, isRange := strings.Cut(base, "-")
	if isRange {
		loN, err := remapWeekdayNumber(lo)
		if err != nil {
			return "", err
		}
		hiN, err := remapWeekdayNumber(hi)
		if err != nil {
			return "", err
		}
		remapped := loN + "-" + hiN
		if hasStep {
			remapped += "/" + step
		}
		return remapped, nil
	}

	n, err := remapWeekdayNumber(base)
	if err != nil {
		return "", err
	}
	if hasStep {
		n += "/" + step
	}
	return n, nil
}

func remapWeekdayNumber(s string) (string, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", invalidf("cron trigger: invalid day-of-week token %q", s)
	}
	if n < 1 || n > 7 {
		return "", invalidf("cron trigger: day-of-week must be 1-7, got %d", n)
	}
	return strconv.Itoa(n - 1), nil
}
