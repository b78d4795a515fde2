package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/internal/scheduling"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/meeting"
)

type stubBookingRepo struct {
	created     *models.Booking
	evt         *models.OutboxEvent
	createErr   error
	subs        []models.CourseSubscription
	sessions    []models.TeachingSession
	sessionsFor []string
}

func (s *stubBookingRepo) Create(ctx context.Context, booking *models.Booking, evt *models.OutboxEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = booking
	s.evt = evt
	return nil
}

func (s *stubBookingRepo) ListByParent(ctx context.Context, parentID string) ([]models.CourseSubscription, error) {
	return s.subs, nil
}

func (s *stubBookingRepo) ListSessions(ctx context.Context, subscriptionIDs []string) ([]models.TeachingSession, error) {
	s.sessionsFor = subscriptionIDs
	return s.sessions, nil
}

type stubMeetings struct {
	link string
	err  error
	reqs []meeting.Request
}

func (s *stubMeetings) CreateMeetingLink(ctx context.Context, req meeting.Request) (string, error) {
	s.reqs = append(s.reqs, req)
	return s.link, s.err
}

type stubAuditWriter struct {
	logs []*models.AuditLog
}

func (s *stubAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type bookingFixture struct {
	svc      *BookingService
	repo     *stubBookingRepo
	courses  *stubCourseRepo
	meetings *stubMeetings
	booked   *stubBookedReader
	audit    *stubAuditWriter
	mem      *memoryCache
}

func newBookingFixture() *bookingFixture {
	courses := newStubCourseRepo(&models.Course{ID: "c1", TutorID: "t1", Title: "Algebra", Price: 120, TotalLessons: 3, Status: models.CourseStatusPublished})
	courses.lessons["c1"] = []models.Lesson{{ID: "l1", Title: "Numbers"}, {ID: "l2", Title: "Equations"}}

	token := "parent-google-token"
	users := &stubUserFinder{users: map[string]*models.User{
		"p1": {ID: "p1", Email: "parent@example.com", GoogleToken: &token},
		"t1": {ID: "t1", Email: "tutor@example.com"},
	}}
	children := &stubChildRepo{children: map[string]*models.Child{
		"k1": {ID: "k1", ParentID: "p1", FullName: "Minh"},
		"k2": {ID: "k2", ParentID: "p2", FullName: "Lan"},
	}}

	f := &bookingFixture{
		repo:     &stubBookingRepo{},
		courses:  courses,
		meetings: &stubMeetings{link: "https://meet.example/abc"},
		booked:   &stubBookedReader{},
		audit:    &stubAuditWriter{},
		mem:      newMemoryCache(),
	}
	f.svc = NewBookingService(BookingDeps{
		Repo:     f.repo,
		Courses:  courses,
		Children: children,
		Users:    users,
		Sessions: f.booked,
		Meetings: f.meetings,
		Audit:    f.audit,
		Cache:    NewCacheService(f.mem, nil, time.Minute, nil, true),
		Metrics:  NewMetricsService(),
		Clock:    clock.Fixed{At: availabilityNow},
	}, nil, nil)
	return f
}

func bookingRequest() CreateTrialBookingRequest {
	return CreateTrialBookingRequest{
		CourseID: "c1",
		ChildID:  "k1",
		Dates: []BookingDateRequest{
			{StartTime: time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC)},
			{StartTime: time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)},
		},
	}
}

func TestBookingServiceCreateExpandsSessions(t *testing.T) {
	f := newBookingFixture()

	booking, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.SubscriptionActive, booking.Status)
	assert.Equal(t, models.PaymentPending, booking.PaymentStatus)
	assert.Equal(t, 120.0, booking.Price)
	assert.Equal(t, 3, booking.SessionsRemaining)
	require.Len(t, booking.Schedules, 2)

	require.Len(t, booking.Sessions, 3)
	starts := []time.Time{
		time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
	}
	for i, session := range booking.Sessions {
		assert.Equal(t, starts[i], session.StartTime)
		assert.Equal(t, i+1, session.Sequence)
		assert.Equal(t, models.SessionNotYet, session.Status)
		assert.Equal(t, "t1", session.TutorID)
		require.NotNil(t, session.MeetingURL)
		assert.Equal(t, "https://meet.example/abc", *session.MeetingURL)
	}
	require.NotNil(t, booking.Sessions[0].LessonTitle)
	assert.Equal(t, "Numbers", *booking.Sessions[0].LessonTitle)
	assert.Equal(t, "Equations", *booking.Sessions[1].LessonTitle)
	assert.Nil(t, booking.Sessions[2].LessonTitle)
}

func TestBookingServiceCreateSideEffects(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.NoError(t, err)

	require.Len(t, f.meetings.reqs, 1)
	req := f.meetings.reqs[0]
	assert.Equal(t, []string{"parent@example.com", "tutor@example.com"}, req.Attendees)
	assert.Equal(t, "parent-google-token", req.AccessToken)
	assert.Equal(t, time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC), req.Start)

	require.NotNil(t, f.repo.evt)
	assert.Equal(t, models.EventBookingCreated, f.repo.evt.EventType)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(f.repo.evt.Payload, &payload))
	assert.Equal(t, "c1", payload["course_id"])
	assert.Equal(t, float64(3), payload["sessions"])
	assert.Equal(t, f.repo.created.ID, payload["subscription_id"])
	assert.Equal(t, f.repo.created.ID, f.repo.evt.AggregateID)
	assert.NotEmpty(t, f.repo.evt.AggregateID)

	assert.Contains(t, f.mem.deleted, repository.TutorAvailabilityPattern("t1"))
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionBookingCreate, f.audit.logs[0].Action)

	assert.Equal(t, 1, f.booked.calls)
	assert.Equal(t, time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC), f.booked.from)
	assert.Equal(t, time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC), f.booked.to)
}

func TestBookingServiceRejectsForeignChild(t *testing.T) {
	f := newBookingFixture()
	req := bookingRequest()
	req.ChildID = "k2"

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, f.repo.created)
}

func TestBookingServiceRejectsUnpublishedCourse(t *testing.T) {
	f := newBookingFixture()
	f.courses.courses["c1"].Status = models.CourseStatusDraft

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceRejectsEmptyTemplates(t *testing.T) {
	f := newBookingFixture()
	req := bookingRequest()
	req.Dates = nil

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidBookingRequest.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceInvertedTemplateIsInconsistent(t *testing.T) {
	f := newBookingFixture()
	req := bookingRequest()
	req.Dates = []BookingDateRequest{{
		StartTime: time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC),
	}}

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataInconsistency.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceOverlapConflicts(t *testing.T) {
	f := newBookingFixture()
	f.booked.intervals = []scheduling.Interval{{
		Start: time.Date(2025, 3, 7, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 7, 10, 30, 0, 0, time.UTC),
	}}

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.meetings.reqs)
}

func TestBookingServiceUniqueViolationConflicts(t *testing.T) {
	f := newBookingFixture()
	f.repo.createErr = &pq.Error{Code: "23505"}

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.mem.deleted)
}

func TestBookingServiceMeetingFailureAborts(t *testing.T) {
	f := newBookingFixture()
	f.meetings.err = errors.New("calendar unavailable")

	_, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMeetingProvider.Code, appErrors.FromError(err).Code)
	assert.Nil(t, f.repo.created)
}

func TestBookingServiceWithoutMeetingLink(t *testing.T) {
	f := newBookingFixture()
	f.meetings.link = ""

	booking, err := f.svc.CreateTrialBooking(context.Background(), "p1", bookingRequest())
	require.NoError(t, err)
	assert.Nil(t, booking.MeetingURL)
	assert.Nil(t, booking.Sessions[0].MeetingURL)
}

func TestBookingServiceListParentBookingsGroupsSessions(t *testing.T) {
	f := newBookingFixture()
	f.repo.subs = []models.CourseSubscription{{ID: "s1"}, {ID: "s2"}}
	f.repo.sessions = []models.TeachingSession{
		{ID: "a", SubscriptionID: "s1"},
		{ID: "b", SubscriptionID: "s1"},
	}

	bookings, err := f.svc.ListParentBookings(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, []string{"s1", "s2"}, f.repo.sessionsFor)
	assert.Len(t, bookings[0].Sessions, 2)
	assert.NotNil(t, bookings[1].Sessions)
	assert.Empty(t, bookings[1].Sessions)
}
