package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/internal/scheduling"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/meeting"
	"github.com/vnvodich/tutor-api/pkg/tracing"
)

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking, evt *models.OutboxEvent) error
	ListByParent(ctx context.Context, parentID string) ([]models.CourseSubscription, error)
	ListSessions(ctx context.Context, subscriptionIDs []string) ([]models.TeachingSession, error)
}

type bookingCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
}

type childFinder interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type meetingLinkProvider interface {
	CreateMeetingLink(ctx context.Context, req meeting.Request) (string, error)
}

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateTrialBookingRequest books a course for a child on weekly templates.
type CreateTrialBookingRequest struct {
	CourseID      string               `json:"course_id" validate:"required"`
	ChildID       string               `json:"child_id" validate:"required"`
	Dates         []BookingDateRequest `json:"dates" validate:"required,min=1,dive"`
	TransactionID *string              `json:"transaction_id"`
	IP            string               `json:"-"`
	UserAgent     string               `json:"-"`
}

// BookingDateRequest is one weekly template; its weekday and times repeat.
type BookingDateRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type bookingCreatedPayload struct {
	SubscriptionID string    `json:"subscription_id"`
	CourseID       string    `json:"course_id"`
	ChildID        string    `json:"child_id"`
	ParentID       string    `json:"parent_id"`
	TutorID        string    `json:"tutor_id"`
	Sessions       int       `json:"sessions"`
	FirstStart     time.Time `json:"first_start"`
	MeetingURL     string    `json:"meeting_url,omitempty"`
}

// BookingService turns weekly templates into a subscription with sessions.
type BookingService struct {
	repo      bookingRepository
	courses   bookingCourseReader
	children  childFinder
	users     userFinder
	sessions  bookedIntervalReader
	meetings  meetingLinkProvider
	audit     auditLogWriter
	cache     *CacheService
	metrics   *MetricsService
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// BookingDeps groups the collaborators of BookingService.
type BookingDeps struct {
	Repo     bookingRepository
	Courses  bookingCourseReader
	Children childFinder
	Users    userFinder
	Sessions bookedIntervalReader
	Meetings meetingLinkProvider
	Audit    auditLogWriter
	Cache    *CacheService
	Metrics  *MetricsService
	Clock    clock.Clock
}

// NewBookingService constructs a BookingService.
func NewBookingService(deps BookingDeps, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if deps.Meetings == nil {
		deps.Meetings = meeting.Disabled{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.New(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repo:      deps.Repo,
		courses:   deps.Courses,
		children:  deps.Children,
		users:     deps.Users,
		sessions:  deps.Sessions,
		meetings:  deps.Meetings,
		audit:     deps.Audit,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		validator: validate,
		logger:    logger,
	}
}

// CreateTrialBooking validates ownership, expands the templates into
// sessions and persists everything atomically with a booking.created event.
func (s *BookingService) CreateTrialBooking(ctx context.Context, parentID string, req CreateTrialBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidBookingRequest.Code, appErrors.ErrInvalidBookingRequest.Status, "invalid booking payload")
	}

	child, err := s.children.FindByID(ctx, req.ChildID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}
	if child.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not open for booking")
	}
	lessons, err := s.courses.ListLessons(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	detail := models.CourseDetail{Course: *course, Lessons: lessons}

	templates := make([]scheduling.Interval, len(req.Dates))
	for i, date := range req.Dates {
		templates[i] = scheduling.Interval{Start: date.StartTime, End: date.EndTime}
	}
	totalLessons := course.TotalLessons
	if totalLessons < 1 {
		totalLessons = 1
	}

	now := s.clock.Now()
	expanded, err := scheduling.ExpandBookingSchedule(templates, totalLessons, detail.LessonTitles(), now)
	if err != nil {
		return nil, mapSchedulingError(err)
	}
	sort.SliceStable(expanded, func(i, j int) bool {
		return expanded[i].Start.Before(expanded[j].Start)
	})

	if err := s.ensureFree(ctx, course.TutorID, expanded); err != nil {
		return nil, err
	}

	parent, err := s.users.FindByID(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	attendees := []string{parent.Email}
	if tutor, err := s.users.FindByID(ctx, course.TutorID); err == nil {
		attendees = append(attendees, tutor.Email)
	} else {
		s.logger.Warn("tutor email unavailable for meeting invite", zap.String("tutor_id", course.TutorID), zap.Error(err))
	}
	meetingReq := meeting.Request{
		Title:       fmt.Sprintf("%s with %s", course.Title, child.FullName),
		Description: fmt.Sprintf("%d lessons of %s", len(expanded), course.Title),
		Start:       expanded[0].Start,
		End:         expanded[0].End,
		Attendees:   attendees,
	}
	if parent.GoogleToken != nil {
		meetingReq.AccessToken = *parent.GoogleToken
	}
	link, err := s.meetings.CreateMeetingLink(ctx, meetingReq)
	if err != nil {
		s.logger.Error("meeting link creation failed", zap.String("course_id", course.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrMeetingProvider.Code, appErrors.ErrMeetingProvider.Status, "failed to create meeting link")
	}
	var meetingURL *string
	if link != "" {
		meetingURL = &link
	}

	booking := &models.Booking{
		CourseSubscription: models.CourseSubscription{
			ID:                uuid.NewString(),
			CourseID:          course.ID,
			ChildID:           child.ID,
			ParentID:          parentID,
			Status:            models.SubscriptionActive,
			PaymentStatus:     models.PaymentPending,
			Price:             course.Price,
			SessionsRemaining: len(expanded),
			TransactionID:     trimOptional(req.TransactionID),
			MeetingURL:        meetingURL,
			CourseTitle:       course.Title,
			ChildName:         child.FullName,
			TutorID:           course.TutorID,
		},
	}
	for _, tpl := range req.Dates {
		booking.Schedules = append(booking.Schedules, models.SubscriptionSchedule{StartTime: tpl.StartTime, EndTime: tpl.EndTime})
	}
	for _, session := range expanded {
		booking.Sessions = append(booking.Sessions, models.TeachingSession{
			TutorID:     course.TutorID,
			Sequence:    session.Sequence + 1,
			LessonTitle: session.LessonTitle,
			StartTime:   session.Start,
			EndTime:     session.End,
			Status:      models.SessionNotYet,
			MeetingURL:  meetingURL,
			CourseTitle: course.Title,
			ChildName:   child.FullName,
			ParentID:    parentID,
		})
	}

	evt, err := newOutboxEvent(ctx, models.EventBookingCreated, booking.ID, bookingCreatedPayload{
		SubscriptionID: booking.ID,
		CourseID:       course.ID,
		ChildID:        child.ID,
		ParentID:       parentID,
		TutorID:        course.TutorID,
		Sessions:       len(expanded),
		FirstStart:     expanded[0].Start,
		MeetingURL:     link,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, booking, evt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.cache.Invalidate(ctx, repository.TutorAvailabilityPattern(course.TutorID))
	s.metrics.RecordBooking(len(booking.Sessions))
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &parentID,
			Action:     models.AuditActionBookingCreate,
			Resource:   "course_subscription",
			ResourceID: &booking.ID,
			NewValues:  []byte(fmt.Sprintf(`{"course_id":%q,"sessions":%d}`, course.ID, len(booking.Sessions))),
			IPAddress:  req.IP,
			UserAgent:  req.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to write booking audit log", zap.Error(err))
		}
	}

	s.logger.Info("trial booking created",
		zap.String("subscription_id", booking.ID),
		zap.String("course_id", course.ID),
		zap.Int("sessions", len(booking.Sessions)))
	return booking, nil
}

// ListParentBookings returns the parent's subscriptions with their sessions.
func (s *BookingService) ListParentBookings(ctx context.Context, parentID string) ([]models.Booking, error) {
	subs, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	sessions, err := s.repo.ListSessions(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list booking sessions")
	}

	bySubscription := make(map[string][]models.TeachingSession, len(subs))
	for _, session := range sessions {
		bySubscription[session.SubscriptionID] = append(bySubscription[session.SubscriptionID], session)
	}
	bookings := make([]models.Booking, 0, len(subs))
	for _, sub := range subs {
		items := bySubscription[sub.ID]
		if items == nil {
			items = []models.TeachingSession{}
		}
		bookings = append(bookings, models.Booking{CourseSubscription: sub, Sessions: items})
	}
	return bookings, nil
}

// ensureFree rejects sessions overlapping the tutor's existing bookings.
// The unique index on (tutor_id, start_time) still guards concurrent writers.
func (s *BookingService) ensureFree(ctx context.Context, tutorID string, sessions []scheduling.SessionInterval) error {
	if s.sessions == nil || len(sessions) == 0 {
		return nil
	}
	booked, err := s.sessions.BookedIntervals(ctx, tutorID, sessions[0].Start, sessions[len(sessions)-1].End, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked sessions")
	}
	for _, session := range sessions {
		if scheduling.Overlaps(scheduling.Interval{Start: session.Start, End: session.End}, booked) {
			return appErrors.Clone(appErrors.ErrConflict, "slot already booked")
		}
	}
	return nil
}

func mapSchedulingError(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrInvalidBookingRequest):
		return appErrors.Wrap(err, appErrors.ErrInvalidBookingRequest.Code, appErrors.ErrInvalidBookingRequest.Status, err.Error())
	case errors.Is(err, scheduling.ErrDataInconsistency):
		return appErrors.Wrap(err, appErrors.ErrDataInconsistency.Code, appErrors.ErrDataInconsistency.Status, err.Error())
	case errors.Is(err, scheduling.ErrInvalidWindow):
		return appErrors.Wrap(err, appErrors.ErrInvalidWindow.Code, appErrors.ErrInvalidWindow.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand schedule")
	}
}

// newOutboxEvent marshals payload and stamps the current trace context.
// An empty aggregateID is filled by the repository once the row id is known.
func newOutboxEvent(ctx context.Context, eventType, aggregateID string, payload interface{}) (*models.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event")
	}
	evt := &models.OutboxEvent{EventType: eventType, AggregateID: aggregateID, Payload: raw}
	if traceparent := tracing.Traceparent(ctx); traceparent != "" {
		evt.Traceparent = &traceparent
	}
	return evt, nil
}
