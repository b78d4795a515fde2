package models

import (
	"time"

	"github.com/vnvodich/tutor-api/internal/scheduling"
)

// Availability holds the tutor-wide gap setting.
type Availability struct {
	ID             string    `db:"id" json:"id"`
	TutorID        string    `db:"tutor_id" json:"tutor_id"`
	TimeGapMinutes int       `db:"time_gap_minutes" json:"time_gap_minutes"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AvailabilityDay is a weekly working window stored as HH:MM strings.
type AvailabilityDay struct {
	ID             string             `db:"id" json:"id"`
	AvailabilityID string             `db:"availability_id" json:"availability_id"`
	Day            scheduling.Weekday `db:"day" json:"day"`
	StartTime      string             `db:"start_time" json:"start_time"`
	EndTime        string             `db:"end_time" json:"end_time"`
}

// Window parses the stored bounds into a scheduling window.
func (d AvailabilityDay) Window() (scheduling.Window, error) {
	start, err := scheduling.ParseTimeOfDay(d.StartTime)
	if err != nil {
		return scheduling.Window{}, err
	}
	end, err := scheduling.ParseTimeOfDay(d.EndTime)
	if err != nil {
		return scheduling.Window{}, err
	}
	w := scheduling.Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return scheduling.Window{}, err
	}
	return w, nil
}

// TutorAvailability is the weekly view returned to clients.
type TutorAvailability struct {
	TutorID        string            `json:"tutor_id"`
	TimeGapMinutes int               `json:"time_gap_minutes"`
	Days           []DayAvailability `json:"days"`
}

// DayAvailability describes one weekday in the weekly view.
type DayAvailability struct {
	Day         scheduling.Weekday `json:"day"`
	IsAvailable bool               `json:"is_available"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time"`
}

// DailySlots lists the bookable start times for a calendar date.
type DailySlots struct {
	Date  string             `json:"date"`
	Day   scheduling.Weekday `json:"day"`
	Slots []string           `json:"slots"`
}
