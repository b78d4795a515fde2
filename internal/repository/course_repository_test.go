package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
)

func TestCourseListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	published := models.CourseStatusPublished
	minPrice := 10.0
	rows := sqlmock.NewRows([]string{"id", "tutor_id", "tutor_name", "title", "description", "subject", "grade", "price", "total_lessons", "status", "image_url", "average_rating", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("c.status = $2 AND c.price >= $3 ORDER BY c.price ASC LIMIT 10 OFFSET 10")).
		WithArgs("math", published, minPrice).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses c")).
		WithArgs("math", published, minPrice).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{
		Subject: "Math", Status: &published, MinPrice: &minPrice,
		Page: 2, PageSize: 10, SortBy: "price", SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListIgnoresUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY c.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.CourseFilter{SortBy: "id; DROP TABLE courses"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddLessonAssignsNextPositionAndSyncsCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT id FROM courses WHERE id = $1 FOR UPDATE")).WithArgs("course-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position), 0) + 1 FROM lessons")).WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(4))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET total_lessons = (SELECT COUNT(*) FROM lessons WHERE course_id = $1)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	lesson := &models.Lesson{CourseID: "course-1", Title: "Fractions"}
	require.NoError(t, repo.AddLesson(context.Background(), lesson))
	assert.Equal(t, 4, lesson.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLessonCompactsPositions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM lessons WHERE id = $1 AND course_id = $2 RETURNING position")).
		WithArgs("lesson-2", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET position = position - 1")).
		WithArgs("course-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET total_lessons")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteLesson(context.Background(), "course-1", "lesson-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLessonMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM lessons")).WillReturnRows(sqlmock.NewRows([]string{"position"}))
	mock.ExpectRollback()

	err := repo.DeleteLesson(context.Background(), "course-1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
