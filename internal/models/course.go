package models

import "time"

// CourseStatus tracks the publishing lifecycle of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// MinLessonsToPublish is the lesson count a course needs before it can go live.
const MinLessonsToPublish = 5

// Course is a tutor's lesson series offered to parents.
type Course struct {
	ID            string       `db:"id" json:"id"`
	TutorID       string       `db:"tutor_id" json:"tutor_id"`
	TutorName     string       `db:"tutor_name" json:"tutor_name,omitempty"`
	Title         string       `db:"title" json:"title"`
	Description   *string      `db:"description" json:"description,omitempty"`
	Subject       string       `db:"subject" json:"subject"`
	Grade         *string      `db:"grade" json:"grade,omitempty"`
	Price         float64      `db:"price" json:"price"`
	TotalLessons  int          `db:"total_lessons" json:"total_lessons"`
	Status        CourseStatus `db:"status" json:"status"`
	ImageURL      *string      `db:"image_url" json:"image_url,omitempty"`
	AverageRating float64      `db:"average_rating" json:"average_rating"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures course catalogue filters.
type CourseFilter struct {
	TutorID   string
	Subject   string
	Grade     string
	Status    *CourseStatus
	MinPrice  *float64
	MaxPrice  *float64
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Lesson is one ordered unit of a course.
type Lesson struct {
	ID                 string    `db:"id" json:"id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	Position           int       `db:"position" json:"position"`
	Title              string    `db:"title" json:"title"`
	Description        *string   `db:"description" json:"description,omitempty"`
	LearningObjectives *string   `db:"learning_objectives" json:"learning_objectives,omitempty"`
	MaterialsNeeded    *string   `db:"materials_needed" json:"materials_needed,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail bundles a course with its lessons.
type CourseDetail struct {
	Course
	Lessons []Lesson `json:"lessons"`
}

// LessonTitles returns titles in lesson order.
func (d *CourseDetail) LessonTitles() []string {
	titles := make([]string, 0, len(d.Lessons))
	for _, lesson := range d.Lessons {
		titles = append(titles, lesson.Title)
	}
	return titles
}
