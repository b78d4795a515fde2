package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/scheduling"
)

func TestFindAvailabilityByTutor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM availabilities WHERE tutor_id = $1")).WithArgs("tutor-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tutor_id", "time_gap_minutes", "created_at", "updated_at"}).AddRow("av-1", "tutor-1", 15, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("to_char(start_time, 'HH24:MI') AS start_time")).WithArgs("av-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "availability_id", "day", "start_time", "end_time"}).
			AddRow("d-1", "av-1", "MONDAY", "09:00", "12:00"))

	availability, days, err := repo.FindByTutor(context.Background(), "tutor-1")
	require.NoError(t, err)
	assert.Equal(t, 15, availability.TimeGapMinutes)
	require.Len(t, days, 1)
	assert.Equal(t, scheduling.Monday, days[0].Day)
	assert.Equal(t, "12:00", days[0].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAvailabilityMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM availabilities")).WillReturnError(sql.ErrNoRows)

	_, _, err := repo.FindByTutor(context.Background(), "tutor-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReplaceAvailabilitySwapsDays(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (tutor_id) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tutor_id", "time_gap_minutes", "created_at", "updated_at"}).AddRow("av-1", "tutor-1", 10, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_days WHERE availability_id = $1")).WithArgs("av-1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO availability_days").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availability_days").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	days := []models.AvailabilityDay{
		{Day: scheduling.Monday, StartTime: "09:00", EndTime: "12:00"},
		{Day: scheduling.Friday, StartTime: "13:00", EndTime: "17:00"},
	}
	availability, err := repo.Replace(context.Background(), "tutor-1", 10, days)
	require.NoError(t, err)
	assert.Equal(t, "av-1", availability.ID)
	assert.Equal(t, "av-1", days[1].AvailabilityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
