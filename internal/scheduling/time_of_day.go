package scheduling

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date component.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (a trailing ":SS" is tolerated and ignored).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: time %q is not in HH:MM format", ErrInvalidWindow, raw)
}

// MustTimeOfDay is ParseTimeOfDay for constants.
func MustTimeOfDay(raw string) TimeOfDay {
	tod, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return tod
}

// MinutesSinceMidnight returns the offset of the time within its day.
func (t TimeOfDay) MinutesSinceMidnight() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.MinutesSinceMidnight() < other.MinutesSinceMidnight()
}

// On anchors the time of day to the calendar date of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Window is a daily availability range.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Validate ensures the window opens before it closes.
func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Interval is a concrete time range, used for booked sessions and recurring templates.
type Interval struct {
	Start time.Time
	End   time.Time
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
