package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

const courseSelect = `SELECT c.id, c.tutor_id, u.full_name AS tutor_name, c.title, c.description, c.subject, c.grade, c.price, c.total_lessons, c.status, c.image_url,
	ROUND(COALESCE(r.avg_rating, 0)::numeric, 1) AS average_rating, c.created_at, c.updated_at`

const courseFrom = `FROM courses c
	JOIN users u ON u.id = c.tutor_id
	LEFT JOIN (SELECT course_id, AVG(rating) AS avg_rating FROM course_reviews GROUP BY course_id) r ON r.course_id = c.id`

const lessonColumns = `id, course_id, position, title, description, learning_objectives, materials_needed, created_at, updated_at`

// CourseRepository manages courses and their ordered lessons.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	baseQuery := courseFrom + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.subject) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Subject))
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("c.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("c.price >= $%d", len(args)+1))
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("c.price <= $%d", len(args)+1))
		args = append(args, *filter.MaxPrice)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "c.created_at",
		"price":      "c.price",
		"title":      "c.title",
		"rating":     "average_rating",
	}
	sortBy, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortBy = "c.created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	_, pageSize, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseSelect, baseQuery, sortBy, sortOrder, pageSize, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course with its tutor name and rating.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := courseSelect + " " + courseFrom + ` WHERE c.id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ListLessons returns lessons ordered by position.
func (r *CourseRepository) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY position ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindLesson returns a lesson scoped to its course.
func (r *CourseRepository) FindLesson(ctx context.Context, courseID, lessonID string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 AND course_id = $2`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, lessonID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, tutor_id, title, description, subject, grade, price, total_lessons, status, image_url, created_at, updated_at) VALUES (:id, :tutor_id, :title, :description, :subject, :grade, :price, :total_lessons, :status, :image_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update stores mutable course fields. total_lessons is owned by the lesson methods.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, subject = :subject, grade = :grade, price = :price, status = :status, image_url = :image_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// HasSubscriptions reports whether any subscription references the course.
func (r *CourseRepository) HasSubscriptions(ctx context.Context, courseID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM course_subscriptions WHERE course_id = $1)`, courseID); err != nil {
		return false, fmt.Errorf("check course subscriptions: %w", err)
	}
	return exists, nil
}

// Delete removes a course and its lessons.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// AddLesson appends a lesson and refreshes total_lessons atomically.
func (r *CourseRepository) AddLesson(ctx context.Context, lesson *models.Lesson) (err error) {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT id FROM courses WHERE id = $1 FOR UPDATE`, lesson.CourseID); err != nil {
		return fmt.Errorf("lock course: %w", err)
	}
	if err = tx.GetContext(ctx, &lesson.Position, `SELECT COALESCE(MAX(position), 0) + 1 FROM lessons WHERE course_id = $1`, lesson.CourseID); err != nil {
		return fmt.Errorf("next lesson position: %w", err)
	}

	const insert = `INSERT INTO lessons (id, course_id, position, title, description, learning_objectives, materials_needed, created_at, updated_at) VALUES (:id, :course_id, :position, :title, :description, :learning_objectives, :materials_needed, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insert, lesson); err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	if err = syncLessonCount(ctx, tx, lesson.CourseID, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit add lesson: %w", err)
	}
	return nil
}

// UpdateLesson stores lesson content. Position is left untouched.
func (r *CourseRepository) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, description = :description, learning_objectives = :learning_objectives, materials_needed = :materials_needed, updated_at = :updated_at WHERE id = :id AND course_id = :course_id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// DeleteLesson removes a lesson, closes the position gap and refreshes total_lessons.
func (r *CourseRepository) DeleteLesson(ctx context.Context, courseID, lessonID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var position int
	if err = tx.GetContext(ctx, &position, `DELETE FROM lessons WHERE id = $1 AND course_id = $2 RETURNING position`, lessonID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("delete lesson: %w", err)
	}
	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE lessons SET position = position - 1, updated_at = $3 WHERE course_id = $1 AND position > $2`, courseID, position, now); err != nil {
		return fmt.Errorf("compact lesson positions: %w", err)
	}
	if err = syncLessonCount(ctx, tx, courseID, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete lesson: %w", err)
	}
	return nil
}

func syncLessonCount(ctx context.Context, exec sqlx.ExtContext, courseID string, now time.Time) error {
	const query = `UPDATE courses SET total_lessons = (SELECT COUNT(*) FROM lessons WHERE course_id = $1), updated_at = $2 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, courseID, now); err != nil {
		return fmt.Errorf("sync lesson count: %w", err)
	}
	return nil
}
