package models

import "time"

// Child is a learner managed by a parent account.
type Child struct {
	ID            string     `db:"id" json:"id"`
	ParentID      string     `db:"parent_id" json:"parent_id"`
	FullName      string     `db:"full_name" json:"full_name"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	GradeLevel    *string    `db:"grade_level" json:"grade_level,omitempty"`
	LearningGoals *string    `db:"learning_goals" json:"learning_goals,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
