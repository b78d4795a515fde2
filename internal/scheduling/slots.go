package scheduling

import (
	"fmt"
	"time"
)

const (
	DefaultTimeGapMinutes      = 10
	DefaultSlotDurationMinutes = 50
)

// SlotQuery describes one day of slot generation for a tutor.
type SlotQuery struct {
	Window              Window
	Booked              []Interval
	Date                time.Time
	TimeGapMinutes      int
	SlotDurationMinutes int
	Now                 time.Time
}

// WithDefaults fills unset sizing with the marketplace defaults.
// A negative gap or a non-positive duration counts as unset.
func (q SlotQuery) WithDefaults() SlotQuery {
	if q.TimeGapMinutes < 0 {
		q.TimeGapMinutes = DefaultTimeGapMinutes
	}
	if q.SlotDurationMinutes <= 0 {
		q.SlotDurationMinutes = DefaultSlotDurationMinutes
	}
	return q
}

// GenerateSlots returns the open start times for q.Date.
//
// Slots are laid back to back, each consuming duration+gap whether or not it
// is offered. On the current day nothing at or before Now is offered; the
// first candidate moves to Now+gap. A window entirely in the past yields an
// empty, non-nil result.
func GenerateSlots(q SlotQuery) ([]time.Time, error) {
	if err := q.Window.Validate(); err != nil {
		return nil, err
	}
	if q.TimeGapMinutes < 0 {
		return nil, fmt.Errorf("%w: time gap must not be negative", ErrInvalidWindow)
	}
	if q.SlotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrInvalidWindow)
	}

	gap := time.Duration(q.TimeGapMinutes) * time.Minute
	step := time.Duration(q.SlotDurationMinutes)*time.Minute + gap

	current := q.Window.Start.On(q.Date)
	windowEnd := q.Window.End.On(q.Date)

	if SameDay(q.Date, q.Now) && !current.After(q.Now) {
		current = q.Now.In(q.Date.Location()).Add(gap)
	}

	capacity := 0
	if current.Before(windowEnd) {
		capacity = int(windowEnd.Sub(current)/step) + 1
	}
	slots := make([]time.Time, 0, capacity)
	for current.Before(windowEnd) {
		slotEnd := current.Add(step)
		if !overlapsAny(current, slotEnd, q.Booked) {
			slots = append(slots, current)
		}
		current = slotEnd
	}
	return slots, nil
}

// overlapsAny keeps the marketplace's historic boundary rules: the slot start
// is tested half-open on the right, the slot end half-open on the left, and
// full containment is inclusive on both sides.
func overlapsAny(start, end time.Time, booked []Interval) bool {
	for _, b := range booked {
		startInside := !start.Before(b.Start) && start.Before(b.End)
		endInside := end.After(b.Start) && !end.After(b.End)
		contains := !start.After(b.Start) && !end.Before(b.End)
		if startInside || endInside || contains {
			return true
		}
	}
	return false
}

// Overlaps applies the slot overlap rule to a single candidate range.
func Overlaps(candidate Interval, booked []Interval) bool {
	return overlapsAny(candidate.Start, candidate.End, booked)
}

// FormatSlots renders slot starts as "HH:MM" in their own location.
func FormatSlots(slots []time.Time) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Format("15:04")
	}
	return out
}
