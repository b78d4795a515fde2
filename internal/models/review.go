package models

import "time"

// TutorReview is a parent's rating of a tutor.
type TutorReview struct {
	ID         string    `db:"id" json:"id"`
	TutorID    string    `db:"tutor_id" json:"tutor_id"`
	ParentID   string    `db:"parent_id" json:"parent_id"`
	ParentName string    `db:"parent_name" json:"parent_name,omitempty"`
	Rating     int       `db:"rating" json:"rating"`
	Content    *string   `db:"content" json:"content,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CourseReview is a parent's rating of a course.
type CourseReview struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	ParentID   string    `db:"parent_id" json:"parent_id"`
	ParentName string    `db:"parent_name" json:"parent_name,omitempty"`
	Rating     int       `db:"rating" json:"rating"`
	Content    *string   `db:"content" json:"content,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RatingSummary aggregates review ratings.
type RatingSummary struct {
	AverageRating float64 `db:"average_rating" json:"average_rating"`
	TotalReviews  int     `db:"total_reviews" json:"total_reviews"`
}

// TutorReviewSummary is the public review listing of a tutor.
type TutorReviewSummary struct {
	TutorID   string `json:"tutor_id"`
	TutorName string `json:"tutor_name"`
	RatingSummary
	Reviews []TutorReview `json:"reviews"`
}

// CourseReviewSummary is the public review listing of a course.
type CourseReviewSummary struct {
	CourseID    string `json:"course_id"`
	CourseTitle string `json:"course_title"`
	RatingSummary
	Reviews []CourseReview `json:"reviews"`
}
