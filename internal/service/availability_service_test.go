package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/internal/scheduling"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type stubAvailabilityRepo struct {
	availability *models.Availability
	days         []models.AvailabilityDay
	replacedGap  int
	replaced     []models.AvailabilityDay
	replaceCalls int
}

func (s *stubAvailabilityRepo) FindByTutor(ctx context.Context, tutorID string) (*models.Availability, []models.AvailabilityDay, error) {
	if s.availability == nil {
		return nil, nil, sql.ErrNoRows
	}
	return s.availability, s.days, nil
}

func (s *stubAvailabilityRepo) Replace(ctx context.Context, tutorID string, gap int, days []models.AvailabilityDay) (*models.Availability, error) {
	s.replaceCalls++
	s.replacedGap = gap
	s.replaced = days
	s.availability = &models.Availability{ID: "a1", TutorID: tutorID, TimeGapMinutes: gap}
	s.days = days
	return s.availability, nil
}

type stubCourseFinder struct {
	courses map[string]*models.Course
}

func (s *stubCourseFinder) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *course
	return &copy, nil
}

type stubBookedReader struct {
	intervals []scheduling.Interval
	from, to  time.Time
	excludeID string
	calls     int
}

func (s *stubBookedReader) BookedIntervals(ctx context.Context, tutorID string, from, to time.Time, excludeID string) ([]scheduling.Interval, error) {
	s.calls++
	s.from, s.to, s.excludeID = from, to, excludeID
	return s.intervals, nil
}

// Monday 2025-03-03 10:05 UTC.
var availabilityNow = time.Date(2025, 3, 3, 10, 5, 0, 0, time.UTC)

func newAvailabilityFixture(cache *CacheService) (*AvailabilityService, *stubAvailabilityRepo, *stubBookedReader) {
	repo := &stubAvailabilityRepo{
		availability: &models.Availability{ID: "a1", TutorID: "t1", TimeGapMinutes: 10},
		days: []models.AvailabilityDay{
			{Day: scheduling.Monday, StartTime: "09:00", EndTime: "12:00"},
			{Day: scheduling.Tuesday, StartTime: "09:00", EndTime: "11:00"},
		},
	}
	courses := &stubCourseFinder{courses: map[string]*models.Course{"c1": {ID: "c1", TutorID: "t1"}}}
	booked := &stubBookedReader{intervals: []scheduling.Interval{{
		Start: time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
	}}}
	svc := NewAvailabilityService(repo, courses, booked, cache, NewMetricsService(), clock.Fixed{At: availabilityNow},
		AvailabilityConfig{HorizonDays: 7, SlotDurationMinutes: 50, CacheTTL: time.Minute}, nil, nil)
	return svc, repo, booked
}

func TestAvailabilityServiceGetTutorAvailabilityDefaults(t *testing.T) {
	svc := NewAvailabilityService(&stubAvailabilityRepo{}, &stubCourseFinder{}, &stubBookedReader{}, nil, nil, nil, AvailabilityConfig{}, nil, nil)

	result, err := svc.GetTutorAvailability(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 10, result.TimeGapMinutes)
	require.Len(t, result.Days, 7)
	for _, day := range result.Days {
		assert.False(t, day.IsAvailable)
		assert.Equal(t, "09:00", day.StartTime)
		assert.Equal(t, "17:00", day.EndTime)
	}
	assert.Equal(t, scheduling.Monday, result.Days[0].Day)
}

func TestAvailabilityServiceUpdateRejectsInvertedWindow(t *testing.T) {
	svc, repo, _ := newAvailabilityFixture(nil)

	_, err := svc.UpdateTutorAvailability(context.Background(), "t1", UpdateAvailabilityRequest{
		Days: []DayAvailabilityRequest{{Day: "FRIDAY", IsAvailable: true, StartTime: "15:00", EndTime: "09:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWindow.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.replaceCalls)
}

func TestAvailabilityServiceUpdateRejectsDuplicateDay(t *testing.T) {
	svc, _, _ := newAvailabilityFixture(nil)

	_, err := svc.UpdateTutorAvailability(context.Background(), "t1", UpdateAvailabilityRequest{
		Days: []DayAvailabilityRequest{
			{Day: "monday", IsAvailable: true, StartTime: "09:00", EndTime: "10:00"},
			{Day: "MONDAY", IsAvailable: false},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceUpdateReplacesAndInvalidates(t *testing.T) {
	mem := newMemoryCache()
	cache := NewCacheService(mem, nil, time.Minute, nil, true)
	svc, repo, _ := newAvailabilityFixture(cache)

	gap := 15
	result, err := svc.UpdateTutorAvailability(context.Background(), "t1", UpdateAvailabilityRequest{
		TimeGapMinutes: &gap,
		Days: []DayAvailabilityRequest{
			{Day: "wednesday", IsAvailable: true, StartTime: "08:00:00", EndTime: "10:30"},
			{Day: "THURSDAY", IsAvailable: false, StartTime: "junk"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, repo.replacedGap)
	require.Len(t, repo.replaced, 1)
	assert.Equal(t, scheduling.Wednesday, repo.replaced[0].Day)
	assert.Equal(t, "08:00", repo.replaced[0].StartTime)
	assert.Contains(t, mem.deleted, repository.TutorAvailabilityPattern("t1"))

	assert.True(t, result.Days[2].IsAvailable)
	assert.False(t, result.Days[3].IsAvailable)
}

func TestAvailabilityServiceCourseSlots(t *testing.T) {
	svc, _, booked := newAvailabilityFixture(nil)

	days, hit, err := svc.GetCourseAvailability(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, days, 2)

	assert.Equal(t, "2025-03-03", days[0].Date)
	assert.Equal(t, scheduling.Monday, days[0].Day)
	assert.Equal(t, []string{"10:15", "11:15"}, days[0].Slots)

	assert.Equal(t, "2025-03-04", days[1].Date)
	assert.Equal(t, []string{"10:00"}, days[1].Slots)

	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), booked.from)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), booked.to)
	assert.Empty(t, booked.excludeID)
}

func TestAvailabilityServiceCourseSlotsCached(t *testing.T) {
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc, _, booked := newAvailabilityFixture(cache)

	first, hit, err := svc.GetCourseAvailability(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.GetCourseAvailability(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, booked.calls)
}

func TestAvailabilityServiceCourseMissing(t *testing.T) {
	svc, _, _ := newAvailabilityFixture(nil)

	_, _, err := svc.GetCourseAvailability(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

// steppingClock reports start on its first reading and start+step afterwards.
type steppingClock struct {
	start time.Time
	step  time.Duration
	reads int
}

func (c *steppingClock) Now() time.Time {
	c.reads++
	if c.reads == 1 {
		return c.start
	}
	return c.start.Add(c.step)
}

func (c *steppingClock) Location() *time.Location { return c.start.Location() }

func TestAvailabilityServiceTimesGenerationWithClock(t *testing.T) {
	fixture, repo, booked := newAvailabilityFixture(nil)
	metrics := NewMetricsService()
	clk := &steppingClock{start: availabilityNow, step: 2 * time.Second}
	svc := NewAvailabilityService(repo, fixture.courses, booked, nil, metrics, clk,
		AvailabilityConfig{HorizonDays: 7, SlotDurationMinutes: 50, CacheTTL: time.Minute}, nil, nil)

	days, _, err := svc.GetCourseAvailability(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, []string{"10:15", "11:15"}, days[0].Slots)

	families, err := metrics.registry.Gather()
	require.NoError(t, err)
	var sum float64
	for _, family := range families {
		if family.GetName() == "slot_generation_duration_seconds" {
			sum = family.GetMetric()[0].GetHistogram().GetSampleSum()
		}
	}
	assert.Equal(t, 2.0, sum)
}
