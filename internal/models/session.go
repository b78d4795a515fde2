package models

import "time"

// SessionStatus is the state of a single lesson occurrence.
type SessionStatus string

const (
	SessionNotYet    SessionStatus = "NOT_YET"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
	SessionAbsent    SessionStatus = "ABSENT"
)

// TeachingQuality is the parent's qualitative lesson feedback.
type TeachingQuality string

const (
	QualityExcellent TeachingQuality = "EXCELLENT"
	QualityGood      TeachingQuality = "GOOD"
	QualityAverage   TeachingQuality = "AVERAGE"
	QualityPoor      TeachingQuality = "POOR"
)

// TeachingSession is one concrete lesson between a tutor and a child.
type TeachingSession struct {
	ID               string           `db:"id" json:"id"`
	SubscriptionID   string           `db:"subscription_id" json:"subscription_id"`
	TutorID          string           `db:"tutor_id" json:"tutor_id"`
	Sequence         int              `db:"sequence" json:"sequence"`
	LessonTitle      *string          `db:"lesson_title" json:"lesson_title,omitempty"`
	StartTime        time.Time        `db:"start_time" json:"start_time"`
	EndTime          time.Time        `db:"end_time" json:"end_time"`
	Status           SessionStatus    `db:"status" json:"status"`
	MeetingURL       *string          `db:"meeting_url" json:"meeting_url,omitempty"`
	TopicsCovered    *string          `db:"topics_covered" json:"topics_covered,omitempty"`
	HomeworkAssigned *string          `db:"homework_assigned" json:"homework_assigned,omitempty"`
	Rating           *int             `db:"rating" json:"rating,omitempty"`
	TeachingQuality  *TeachingQuality `db:"teaching_quality" json:"teaching_quality,omitempty"`
	Comment          *string          `db:"comment" json:"comment,omitempty"`
	CourseTitle      string           `db:"course_title" json:"course_title,omitempty"`
	ChildName        string           `db:"child_name" json:"child_name,omitempty"`
	ParentID         string           `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// SessionFilter scopes session listings. ParentID and TutorID are set from
// the caller's role, never from query parameters.
type SessionFilter struct {
	ParentID       string
	TutorID        string
	SubscriptionID string
	Status         *SessionStatus
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}
