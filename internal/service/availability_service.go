package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/internal/scheduling"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

const (
	defaultDayStart = "09:00"
	defaultDayEnd   = "17:00"
)

type availabilityRepository interface {
	FindByTutor(ctx context.Context, tutorID string) (*models.Availability, []models.AvailabilityDay, error)
	Replace(ctx context.Context, tutorID string, timeGapMinutes int, days []models.AvailabilityDay) (*models.Availability, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type bookedIntervalReader interface {
	BookedIntervals(ctx context.Context, tutorID string, from, to time.Time, excludeID string) ([]scheduling.Interval, error)
}

// AvailabilityConfig sizes slot generation.
type AvailabilityConfig struct {
	HorizonDays         int
	SlotDurationMinutes int
	CacheTTL            time.Duration
}

// UpdateAvailabilityRequest replaces a tutor's weekly availability.
type UpdateAvailabilityRequest struct {
	TimeGapMinutes *int                     `json:"time_gap_minutes" validate:"omitempty,min=0,max=240"`
	Days           []DayAvailabilityRequest `json:"days" validate:"dive"`
}

// DayAvailabilityRequest is one weekday of UpdateAvailabilityRequest.
type DayAvailabilityRequest struct {
	Day         string `json:"day" validate:"required"`
	IsAvailable bool   `json:"is_available"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// AvailabilityService manages tutor working hours and derives bookable slots.
type AvailabilityService struct {
	repo      availabilityRepository
	courses   courseFinder
	sessions  bookedIntervalReader
	cache     *CacheService
	metrics   *MetricsService
	clock     clock.Clock
	config    AvailabilityConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, courses courseFinder, sessions bookedIntervalReader, cache *CacheService, metrics *MetricsService, clk clock.Clock, cfg AvailabilityConfig, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.SlotDurationMinutes <= 0 {
		cfg.SlotDurationMinutes = scheduling.DefaultSlotDurationMinutes
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		repo:      repo,
		courses:   courses,
		sessions:  sessions,
		cache:     cache,
		metrics:   metrics,
		clock:     clk,
		config:    cfg,
		validator: validate,
		logger:    logger,
	}
}

// GetTutorAvailability returns all seven days. Unconfigured days are
// reported unavailable with default working hours.
func (s *AvailabilityService) GetTutorAvailability(ctx context.Context, tutorID string) (*models.TutorAvailability, error) {
	gap, days, err := s.load(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[scheduling.Weekday]models.AvailabilityDay, len(days))
	for _, day := range days {
		byDay[day.Day] = day
	}

	result := &models.TutorAvailability{TutorID: tutorID, TimeGapMinutes: gap}
	for _, weekday := range scheduling.Weekdays() {
		view := models.DayAvailability{Day: weekday, StartTime: defaultDayStart, EndTime: defaultDayEnd}
		if stored, ok := byDay[weekday]; ok {
			view.IsAvailable = true
			view.StartTime = stored.StartTime
			view.EndTime = stored.EndTime
		}
		result.Days = append(result.Days, view)
	}
	return result, nil
}

// UpdateTutorAvailability replaces the tutor's weekly windows.
func (s *AvailabilityService) UpdateTutorAvailability(ctx context.Context, tutorID string, req UpdateAvailabilityRequest) (*models.TutorAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	gap := scheduling.DefaultTimeGapMinutes
	if req.TimeGapMinutes != nil {
		gap = *req.TimeGapMinutes
	}

	seen := make(map[scheduling.Weekday]bool, len(req.Days))
	rows := make([]models.AvailabilityDay, 0, len(req.Days))
	for _, dayReq := range req.Days {
		day, err := scheduling.ParseWeekday(dayReq.Day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability day")
		}
		if seen[day] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %s listed more than once", day))
		}
		seen[day] = true
		if !dayReq.IsAvailable {
			continue
		}

		row := models.AvailabilityDay{Day: day, StartTime: dayReq.StartTime, EndTime: dayReq.EndTime}
		window, err := row.Window()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidWindow.Code, appErrors.ErrInvalidWindow.Status,
				fmt.Sprintf("invalid window for %s", day))
		}
		row.StartTime = window.Start.String()
		row.EndTime = window.End.String()
		rows = append(rows, row)
	}

	if _, err := s.repo.Replace(ctx, tutorID, gap, rows); err != nil {
		if repository.IsCheckViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidWindow.Code, appErrors.ErrInvalidWindow.Status, "availability window rejected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability")
	}

	s.cache.Invalidate(ctx, repository.TutorAvailabilityPattern(tutorID))
	return s.GetTutorAvailability(ctx, tutorID)
}

// GetCourseAvailability lists open slot start times for the course's tutor
// from today through the configured horizon. The bool reports a cache hit.
func (s *AvailabilityService) GetCourseAvailability(ctx context.Context, courseID string) ([]models.DailySlots, bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	key := repository.TutorCourseAvailabilityKey(course.TutorID, course.ID)
	var cached []models.DailySlots
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	gap, days, err := s.load(ctx, course.TutorID)
	if err != nil {
		return nil, false, err
	}
	windows := make(map[scheduling.Weekday]scheduling.Window, len(days))
	for _, day := range days {
		window, err := day.Window()
		if err != nil {
			s.logger.Warn("skipping malformed availability day",
				zap.String("tutor_id", course.TutorID), zap.String("day", day.Day.String()), zap.Error(err))
			continue
		}
		windows[day.Day] = window
	}

	started := s.clock.Now()
	now := started.In(s.clock.Location())
	today := scheduling.StartOfDay(now)
	horizonEnd := today.AddDate(0, 0, s.config.HorizonDays)

	booked, err := s.sessions.BookedIntervals(ctx, course.TutorID, today, horizonEnd, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked sessions")
	}

	result := make([]models.DailySlots, 0, s.config.HorizonDays)
	total := 0
	for offset := 0; offset < s.config.HorizonDays; offset++ {
		date := today.AddDate(0, 0, offset)
		weekday := scheduling.WeekdayOf(date)
		window, ok := windows[weekday]
		if !ok {
			continue
		}
		slots, err := scheduling.GenerateSlots(scheduling.SlotQuery{
			Window:              window,
			Booked:              booked,
			Date:                date,
			TimeGapMinutes:      gap,
			SlotDurationMinutes: s.config.SlotDurationMinutes,
			Now:                 now,
		})
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInvalidWindow.Code, appErrors.ErrInvalidWindow.Status, "failed to generate slots")
		}
		total += len(slots)
		result = append(result, models.DailySlots{
			Date:  date.Format("2006-01-02"),
			Day:   weekday,
			Slots: scheduling.FormatSlots(slots),
		})
	}
	s.metrics.RecordSlotGeneration(total, s.clock.Now().Sub(started))

	s.cache.Set(ctx, key, result, s.config.CacheTTL)
	return result, false, nil
}

func (s *AvailabilityService) load(ctx context.Context, tutorID string) (int, []models.AvailabilityDay, error) {
	availability, days, err := s.repo.FindByTutor(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scheduling.DefaultTimeGapMinutes, nil, nil
		}
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return availability.TimeGapMinutes, days, nil
}
