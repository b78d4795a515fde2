package clock

import "time"

// Clock supplies the current instant in the marketplace's configured location.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// New returns a wall clock reporting time in loc (UTC when nil).
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock frozen at a single instant, for tests and replays.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time {
	return f.At
}

func (f Fixed) Location() *time.Location {
	return f.At.Location()
}
