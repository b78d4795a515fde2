package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/internal/scheduling"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/export"
)

const exportPageSize = 100

// Export formats accepted by SessionService.Export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.TeachingSession, int, error)
	FindByID(ctx context.Context, id string) (*models.TeachingSession, error)
	RecordOutcome(ctx context.Context, session *models.TeachingSession) error
	Reschedule(ctx context.Context, id string, start, end time.Time, evt *models.OutboxEvent) error
	BookedIntervals(ctx context.Context, tutorID string, from, to time.Time, excludeID string) ([]scheduling.Interval, error)
}

type scheduleRenderer interface {
	Render(doc export.Schedule) ([]byte, error)
}

// UpdateSessionRequest records how a lesson went.
type UpdateSessionRequest struct {
	Status           *models.SessionStatus   `json:"status" validate:"omitempty,oneof=NOT_YET COMPLETED CANCELLED ABSENT"`
	TopicsCovered    *string                 `json:"topics_covered"`
	HomeworkAssigned *string                 `json:"homework_assigned"`
	Rating           *int                    `json:"rating" validate:"omitempty,min=1,max=5"`
	TeachingQuality  *models.TeachingQuality `json:"teaching_quality" validate:"omitempty,oneof=EXCELLENT GOOD AVERAGE POOR"`
	Comment          *string                 `json:"comment" validate:"omitempty,max=2000"`
}

// RescheduleSessionRequest moves a pending session.
type RescheduleSessionRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

// ExportSessionsRequest selects the caller's sessions for a rendered table.
type ExportSessionsRequest struct {
	Format string     `validate:"required,oneof=csv pdf"`
	From   *time.Time `validate:"-"`
	To     *time.Time `validate:"-"`
}

// ExportedFile is a rendered session table.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type sessionRescheduledPayload struct {
	SessionID      string    `json:"session_id"`
	SubscriptionID string    `json:"subscription_id"`
	TutorID        string    `json:"tutor_id"`
	PreviousStart  time.Time `json:"previous_start"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// SessionService manages teaching sessions after a booking created them.
type SessionService struct {
	repo      sessionRepository
	cache     *CacheService
	clock     clock.Clock
	csv       scheduleRenderer
	pdf       scheduleRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, cache *CacheService, clk clock.Clock, csv, pdf scheduleRenderer, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if clk == nil {
		clk = clock.New(nil)
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, cache: cache, clock: clk, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// List returns sessions visible to the actor.
func (s *SessionService) List(ctx context.Context, actor Actor, filter models.SessionFilter) ([]models.TeachingSession, *models.Pagination, error) {
	scoped, err := scopeSessionFilter(actor, filter)
	if err != nil {
		return nil, nil, err
	}
	sessions, total, err := s.repo.List(ctx, scoped)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, models.NewPagination(scoped.Page, scoped.PageSize, total), nil
}

// Update stores the lesson outcome while the session is still pending.
func (s *SessionService) Update(ctx context.Context, actor Actor, id string, req UpdateSessionRequest) (*models.TeachingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionNotYet {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session already started")
	}

	if req.Status != nil {
		session.Status = *req.Status
	}
	if req.TopicsCovered != nil {
		session.TopicsCovered = trimOptional(req.TopicsCovered)
	}
	if req.HomeworkAssigned != nil {
		session.HomeworkAssigned = trimOptional(req.HomeworkAssigned)
	}
	if req.Rating != nil {
		session.Rating = req.Rating
	}
	if req.TeachingQuality != nil {
		session.TeachingQuality = req.TeachingQuality
	}
	if req.Comment != nil {
		session.Comment = trimOptional(req.Comment)
	}

	if err := s.repo.RecordOutcome(ctx, session); err != nil {
		if errors.Is(err, repository.ErrSessionStateChanged) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "session already started")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	if session.Status != models.SessionNotYet {
		s.cache.Invalidate(ctx, repository.TutorAvailabilityPattern(session.TutorID))
	}
	s.logger.Info("teaching session updated", zap.String("session_id", id), zap.String("status", string(session.Status)))
	return session, nil
}

// Reschedule moves a pending session to a free future window.
func (s *SessionService) Reschedule(ctx context.Context, actor Actor, id string, req RescheduleSessionRequest) (*models.TeachingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	if req.StartTime.Before(s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must not be in the past")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	session, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionNotYet {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session already started")
	}

	booked, err := s.repo.BookedIntervals(ctx, session.TutorID, req.StartTime, req.EndTime, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked sessions")
	}
	if scheduling.Overlaps(scheduling.Interval{Start: req.StartTime, End: req.EndTime}, booked) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slot already booked")
	}

	evt, err := newOutboxEvent(ctx, models.EventSessionRescheduled, session.ID, sessionRescheduledPayload{
		SessionID:      session.ID,
		SubscriptionID: session.SubscriptionID,
		TutorID:        session.TutorID,
		PreviousStart:  session.StartTime,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Reschedule(ctx, session.ID, req.StartTime, req.EndTime, evt); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionStateChanged):
			return nil, appErrors.Clone(appErrors.ErrConflict, "session already started")
		case repository.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule session")
	}

	session.StartTime = req.StartTime
	session.EndTime = req.EndTime
	s.cache.Invalidate(ctx, repository.TutorAvailabilityPattern(session.TutorID))
	s.logger.Info("teaching session rescheduled", zap.String("session_id", id), zap.Time("start_time", req.StartTime))
	return session, nil
}

// Export renders every session visible to the actor in the date range.
func (s *SessionService) Export(ctx context.Context, actor Actor, req ExportSessionsRequest) (*ExportedFile, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	if req.From != nil && req.To != nil && !req.To.After(*req.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}

	filter, err := scopeSessionFilter(actor, models.SessionFilter{From: req.From, To: req.To, PageSize: exportPageSize})
	if err != nil {
		return nil, err
	}
	var sessions []models.TeachingSession
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
		}
		sessions = append(sessions, batch...)
		if len(batch) == 0 || len(sessions) >= total {
			break
		}
	}

	doc := sessionSchedule(sessions, req.From, req.To, s.clock.Location())
	file := &ExportedFile{Filename: fmt.Sprintf("sessions-%s.%s", s.clock.Now().UTC().Format("20060102"), req.Format)}
	switch req.Format {
	case ExportFormatCSV:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(doc)
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(doc)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return file, nil
}

func (s *SessionService) loadOwned(ctx context.Context, actor Actor, id string) (*models.TeachingSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	switch {
	case actor.IsAdmin():
	case actor.IsTutor() && session.TutorID == actor.ID:
	case actor.IsParent() && session.ParentID == actor.ID:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another account")
	}
	return session, nil
}

func scopeSessionFilter(actor Actor, filter models.SessionFilter) (models.SessionFilter, error) {
	filter.ParentID = ""
	filter.TutorID = ""
	switch {
	case actor.IsAdmin():
	case actor.IsTutor():
		filter.TutorID = actor.ID
	case actor.IsParent():
		filter.ParentID = actor.ID
	default:
		return filter, appErrors.Clone(appErrors.ErrForbidden, "role cannot view sessions")
	}
	return filter, nil
}

var sessionExportColumns = []export.Column{
	{Title: "Date", Width: 22},
	{Title: "Start", Width: 14},
	{Title: "End", Width: 14},
	{Title: "Course", Width: 55},
	{Title: "Lesson", Width: 60},
	{Title: "Child", Width: 40},
	{Title: "Status", Width: 22},
	{Title: "Rating", Width: 14},
}

// sessionSchedule lays sessions out in the marketplace timezone.
func sessionSchedule(sessions []models.TeachingSession, from, to *time.Time, loc *time.Location) export.Schedule {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		start := session.StartTime.In(loc)
		lesson := strconv.Itoa(session.Sequence)
		if session.LessonTitle != nil {
			lesson = fmt.Sprintf("%d. %s", session.Sequence, *session.LessonTitle)
		}
		rating := ""
		if session.Rating != nil {
			rating = strconv.Itoa(*session.Rating)
		}
		rows = append(rows, []string{
			start.Format("2006-01-02"),
			start.Format("15:04"),
			session.EndTime.In(loc).Format("15:04"),
			session.CourseTitle,
			lesson,
			session.ChildName,
			string(session.Status),
			rating,
		})
	}
	return export.Schedule{
		Title:   "Teaching sessions",
		From:    from,
		To:      to,
		Columns: sessionExportColumns,
		Rows:    rows,
	}
}
