package models

import "time"

// SubscriptionStatus is the lifecycle of a booked course.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPaused    SubscriptionStatus = "PAUSED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionCompleted SubscriptionStatus = "COMPLETED"
)

// PaymentStatus mirrors the card payment state of a subscription.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// CourseSubscription is a child's enrolment in a course created by a booking.
type CourseSubscription struct {
	ID                string             `db:"id" json:"id"`
	CourseID          string             `db:"course_id" json:"course_id"`
	ChildID           string             `db:"child_id" json:"child_id"`
	ParentID          string             `db:"parent_id" json:"parent_id"`
	Status            SubscriptionStatus `db:"status" json:"status"`
	PaymentStatus     PaymentStatus      `db:"payment_status" json:"payment_status"`
	Price             float64            `db:"price" json:"price"`
	SessionsRemaining int                `db:"sessions_remaining" json:"sessions_remaining"`
	TransactionID     *string            `db:"transaction_id" json:"transaction_id,omitempty"`
	MeetingURL        *string            `db:"meeting_url" json:"meeting_url,omitempty"`
	CourseTitle       string             `db:"course_title" json:"course_title,omitempty"`
	ChildName         string             `db:"child_name" json:"child_name,omitempty"`
	TutorID           string             `db:"tutor_id" json:"tutor_id,omitempty"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// SubscriptionSchedule is a weekly template as it was booked.
type SubscriptionSchedule struct {
	ID             string    `db:"id" json:"id"`
	SubscriptionID string    `db:"subscription_id" json:"subscription_id"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	EndTime        time.Time `db:"end_time" json:"end_time"`
}

// Booking is a subscription together with its generated sessions.
type Booking struct {
	CourseSubscription
	Schedules []SubscriptionSchedule `json:"schedules,omitempty"`
	Sessions  []TeachingSession      `json:"sessions"`
}
