package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the closed set of days a tutor can publish availability for.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var orderedWeekdays = [...]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays returns every weekday starting from Monday.
func Weekdays() []Weekday {
	out := make([]Weekday, len(orderedWeekdays))
	copy(out, orderedWeekdays[:])
	return out
}

// ParseWeekday accepts any casing of the enum names ("monday", "Monday", "MONDAY").
func ParseWeekday(raw string) (Weekday, error) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	if !day.Valid() {
		return "", fmt.Errorf("unknown weekday %q", raw)
	}
	return day, nil
}

// WeekdayOf maps a wall-clock instant to its weekday in the instant's location.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Valid reports whether the value is one of the seven enum members.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

func (d Weekday) String() string {
	return string(d)
}
