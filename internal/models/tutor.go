package models

import "time"

// Tutor is the teaching profile attached to a TUTOR user.
type Tutor struct {
	ID              string    `db:"id" json:"id"`
	FullName        string    `db:"full_name" json:"full_name"`
	Email           string    `db:"email" json:"email"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	Qualifications  *string   `db:"qualifications" json:"qualifications,omitempty"`
	TeachingStyle   *string   `db:"teaching_style" json:"teaching_style,omitempty"`
	DemoVideoURL    *string   `db:"demo_video_url" json:"demo_video_url,omitempty"`
	StripeAccountID *string   `db:"stripe_account_id" json:"-"`
	AverageRating   float64   `db:"average_rating" json:"average_rating"`
	ReviewCount     int       `db:"review_count" json:"review_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TutorFilter narrows the public tutor directory.
type TutorFilter struct {
	Search    string
	Subject   string
	MinRating *float64
	Page      int
	PageSize  int
}

// TutorDetail is the public profile with courses and reviews.
type TutorDetail struct {
	Tutor
	Courses []Course      `json:"courses"`
	Reviews []TutorReview `json:"reviews"`
}
