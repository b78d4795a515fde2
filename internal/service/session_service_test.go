package service

import (
	"context"
	"database/sql"
	"strings"
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

type stubSessionRepo struct {
	sessions    map[string]*models.TeachingSession
	listed      []models.SessionFilter
	listPages   [][]models.TeachingSession
	listTotal   int
	outcomeErr  error
	recorded    *models.TeachingSession
	rescheduled *models.OutboxEvent
	booked      []scheduling.Interval
	excludeID   string
}

func (s *stubSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.TeachingSession, int, error) {
	s.listed = append(s.listed, filter)
	idx := filter.Page - 1
	if idx < 0 || idx >= len(s.listPages) {
		return nil, s.listTotal, nil
	}
	return s.listPages[idx], s.listTotal, nil
}

func (s *stubSessionRepo) FindByID(ctx context.Context, id string) (*models.TeachingSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *session
	return &copy, nil
}

func (s *stubSessionRepo) RecordOutcome(ctx context.Context, session *models.TeachingSession) error {
	if s.outcomeErr != nil {
		return s.outcomeErr
	}
	s.recorded = session
	return nil
}

func (s *stubSessionRepo) Reschedule(ctx context.Context, id string, start, end time.Time, evt *models.OutboxEvent) error {
	s.rescheduled = evt
	return nil
}

func (s *stubSessionRepo) BookedIntervals(ctx context.Context, tutorID string, from, to time.Time, excludeID string) ([]scheduling.Interval, error) {
	s.excludeID = excludeID
	return s.booked, nil
}

func newSessionFixture() (*SessionService, *stubSessionRepo, *memoryCache) {
	repo := &stubSessionRepo{sessions: map[string]*models.TeachingSession{
		"s1": {
			ID: "s1", SubscriptionID: "sub-1", TutorID: "t1", ParentID: "p1", Sequence: 1,
			StartTime: time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC),
			Status:    models.SessionNotYet,
		},
		"done": {ID: "done", TutorID: "t1", ParentID: "p1", Status: models.SessionCompleted},
	}}
	mem := newMemoryCache()
	cache := NewCacheService(mem, nil, time.Minute, nil, true)
	return NewSessionService(repo, cache, clock.Fixed{At: availabilityNow}, nil, nil, nil, nil), repo, mem
}

func TestSessionServiceListScopesByRole(t *testing.T) {
	svc, repo, _ := newSessionFixture()

	_, _, err := svc.List(context.Background(), Actor{ID: "p1", Role: models.RoleParent}, models.SessionFilter{TutorID: "t9"})
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), Actor{ID: "t1", Role: models.RoleTutor}, models.SessionFilter{ParentID: "p9"})
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), Actor{ID: "a1", Role: models.RoleAdmin}, models.SessionFilter{SubscriptionID: "sub-1"})
	require.NoError(t, err)

	require.Len(t, repo.listed, 3)
	assert.Equal(t, "p1", repo.listed[0].ParentID)
	assert.Empty(t, repo.listed[0].TutorID)
	assert.Equal(t, "t1", repo.listed[1].TutorID)
	assert.Empty(t, repo.listed[1].ParentID)
	assert.Empty(t, repo.listed[2].ParentID)
	assert.Equal(t, "sub-1", repo.listed[2].SubscriptionID)
}

func TestSessionServiceUpdateCompletes(t *testing.T) {
	svc, repo, mem := newSessionFixture()
	status := models.SessionCompleted
	rating := 5
	topics := "  fractions "

	session, err := svc.Update(context.Background(), tutorActor("t1"), "s1", UpdateSessionRequest{Status: &status, Rating: &rating, TopicsCovered: &topics})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
	require.NotNil(t, repo.recorded)
	assert.Equal(t, "fractions", *repo.recorded.TopicsCovered)
	assert.Equal(t, 5, *repo.recorded.Rating)
	assert.Contains(t, mem.deleted, repository.TutorAvailabilityPattern("t1"))
}

func TestSessionServiceUpdateRejectsStartedSession(t *testing.T) {
	svc, _, _ := newSessionFixture()
	status := models.SessionAbsent

	_, err := svc.Update(context.Background(), tutorActor("t1"), "done", UpdateSessionRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateRaceConflicts(t *testing.T) {
	svc, repo, _ := newSessionFixture()
	repo.outcomeErr = repository.ErrSessionStateChanged
	status := models.SessionCompleted

	_, err := svc.Update(context.Background(), tutorActor("t1"), "s1", UpdateSessionRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateValidation(t *testing.T) {
	svc, _, _ := newSessionFixture()
	rating := 6

	_, err := svc.Update(context.Background(), Actor{ID: "p1", Role: models.RoleParent}, "s1", UpdateSessionRequest{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateForeignParentForbidden(t *testing.T) {
	svc, _, _ := newSessionFixture()
	rating := 4

	_, err := svc.Update(context.Background(), Actor{ID: "p2", Role: models.RoleParent}, "s1", UpdateSessionRequest{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceReschedule(t *testing.T) {
	svc, repo, mem := newSessionFixture()
	req := RescheduleSessionRequest{
		StartTime: time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC),
	}

	session, err := svc.Reschedule(context.Background(), Actor{ID: "p1", Role: models.RoleParent}, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, req.StartTime, session.StartTime)
	assert.Equal(t, "s1", repo.excludeID)
	require.NotNil(t, repo.rescheduled)
	assert.Equal(t, models.EventSessionRescheduled, repo.rescheduled.EventType)
	assert.Equal(t, "s1", repo.rescheduled.AggregateID)
	assert.Contains(t, mem.deleted, repository.TutorAvailabilityPattern("t1"))
}

func TestSessionServiceRescheduleRules(t *testing.T) {
	svc, repo, _ := newSessionFixture()
	parent := Actor{ID: "p1", Role: models.RoleParent}

	_, err := svc.Reschedule(context.Background(), parent, "s1", RescheduleSessionRequest{
		StartTime: availabilityNow.Add(-time.Hour),
		EndTime:   availabilityNow,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	start := availabilityNow.Add(24 * time.Hour)
	_, err = svc.Reschedule(context.Background(), parent, "s1", RescheduleSessionRequest{StartTime: start, EndTime: start})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	repo.booked = []scheduling.Interval{{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)}}
	_, err = svc.Reschedule(context.Background(), parent, "s1", RescheduleSessionRequest{StartTime: start, EndTime: start.Add(time.Hour)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.rescheduled)
}

func TestSessionServiceExportCSVPagesThroughResults(t *testing.T) {
	svc, repo, _ := newSessionFixture()
	title := "Numbers"
	first := make([]models.TeachingSession, exportPageSize)
	for i := range first {
		first[i] = models.TeachingSession{
			Sequence:    i + 1,
			StartTime:   time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC),
			CourseTitle: "Algebra",
			Status:      models.SessionNotYet,
		}
	}
	first[0].LessonTitle = &title
	repo.listPages = [][]models.TeachingSession{first, {{Sequence: 101, CourseTitle: "Algebra", Status: models.SessionCompleted}}}
	repo.listTotal = exportPageSize + 1

	file, err := svc.Export(context.Background(), tutorActor("t1"), ExportSessionsRequest{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "sessions-20250303.csv", file.Filename)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, exportPageSize+2)
	assert.Equal(t, "Date,Start,End,Course,Lesson,Child,Status,Rating", lines[0])
	assert.Equal(t, "2025-03-05,14:00,15:00,Algebra,1. Numbers,,NOT_YET,", lines[1])
	require.Len(t, repo.listed, 2)
	assert.Equal(t, "t1", repo.listed[1].TutorID)
}

func TestSessionServiceExportPDF(t *testing.T) {
	svc, repo, _ := newSessionFixture()
	repo.listPages = [][]models.TeachingSession{{{Sequence: 1, CourseTitle: "Algebra", Status: models.SessionNotYet}}}
	repo.listTotal = 1

	file, err := svc.Export(context.Background(), Actor{ID: "p1", Role: models.RoleParent}, ExportSessionsRequest{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestSessionScheduleUsesMarketplaceZone(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rating := 5
	sessions := []models.TeachingSession{{
		Sequence:    2,
		StartTime:   time.Date(2025, 3, 5, 17, 30, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC),
		CourseTitle: "Algebra",
		ChildName:   "Minh",
		Status:      models.SessionCompleted,
		Rating:      &rating,
	}}

	doc := sessionSchedule(sessions, &from, nil, time.FixedZone("ICT", 7*3600))
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, []string{"2025-03-06", "00:30", "01:30", "Algebra", "2", "Minh", "COMPLETED", "5"}, doc.Rows[0])
	assert.Len(t, doc.Columns, len(doc.Rows[0]))
	assert.Equal(t, "from 2025-03-01", doc.Period())
}

func TestSessionServiceExportRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newSessionFixture()

	_, err := svc.Export(context.Background(), tutorActor("t1"), ExportSessionsRequest{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
