package scheduling

import (
	"fmt"
	"time"
)

const week = 7 * 24 * time.Hour

// SessionInterval is one concrete lesson occurrence produced from a template.
type SessionInterval struct {
	Start       time.Time
	End         time.Time
	Sequence    int
	LessonTitle *string
}

// ExpandBookingSchedule turns weekly templates into totalLessons dated sessions.
//
// Each template is first rolled forward by whole weeks until it is not in the
// past. Sessions are emitted week-major, template-minor, so callers that need
// chronological order must sort the result. Either every session is returned
// or an error is.
func ExpandBookingSchedule(templates []Interval, totalLessons int, lessonTitles []string, now time.Time) ([]SessionInterval, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: at least one schedule template is required", ErrInvalidBookingRequest)
	}
	if totalLessons < 1 {
		return nil, fmt.Errorf("%w: total lessons must be at least 1, got %d", ErrInvalidBookingRequest, totalLessons)
	}

	rolled := make([]Interval, len(templates))
	for i, tpl := range templates {
		r, err := rollTemplate(tpl, now)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		rolled[i] = r
	}

	weeksNeeded := (totalLessons + len(rolled) - 1) / len(rolled)
	sessions := make([]SessionInterval, 0, totalLessons)

weeks:
	for w := 0; w < weeksNeeded; w++ {
		for _, tpl := range rolled {
			if len(sessions) >= totalLessons {
				break weeks
			}
			seq := len(sessions)
			session := SessionInterval{
				Start:    tpl.Start.AddDate(0, 0, 7*w),
				End:      tpl.End.AddDate(0, 0, 7*w),
				Sequence: seq,
			}
			if seq < len(lessonTitles) {
				title := lessonTitles[seq]
				session.LessonTitle = &title
			}
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// rollTemplate moves start and end forward independently; they must land the
// same number of weeks later and still form a forward interval.
func rollTemplate(tpl Interval, now time.Time) (Interval, error) {
	start, startWeeks := rollPast(tpl.Start, now)
	end, endWeeks := rollPast(tpl.End, now)
	if startWeeks != endWeeks {
		return Interval{}, fmt.Errorf("%w: start rolled %d weeks but end rolled %d", ErrDataInconsistency, startWeeks, endWeeks)
	}
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: end %s is not after start %s", ErrDataInconsistency, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

func rollPast(t, now time.Time) (time.Time, int) {
	if !t.Before(now) {
		return t, 0
	}
	weeks := int(now.Sub(t) / week)
	rolled := t.AddDate(0, 0, 7*weeks)
	for rolled.Before(now) {
		weeks++
		rolled = t.AddDate(0, 0, 7*weeks)
	}
	return rolled, weeks
}
