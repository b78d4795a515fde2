package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type childRepository interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
	FindByID(ctx context.Context, id string) (*models.Child, error)
	Create(ctx context.Context, child *models.Child) error
	Update(ctx context.Context, child *models.Child) error
	Delete(ctx context.Context, id string) error
}

// ChildRequest is the create and update payload for a child profile.
type ChildRequest struct {
	FullName      string  `json:"full_name" validate:"required,max=200"`
	DateOfBirth   *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GradeLevel    *string `json:"grade_level" validate:"omitempty,max=50"`
	LearningGoals *string `json:"learning_goals"`
}

// ChildService lets parents manage their children.
type ChildService struct {
	repo      childRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChildService constructs a ChildService.
func NewChildService(repo childRepository, validate *validator.Validate, logger *zap.Logger) *ChildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildService{repo: repo, validator: validate, logger: logger}
}

// List returns the parent's children.
func (s *ChildService) List(ctx context.Context, parentID string) ([]models.Child, error) {
	children, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	if children == nil {
		children = []models.Child{}
	}
	return children, nil
}

// Create adds a child under the parent.
func (s *ChildService) Create(ctx context.Context, parentID string, req ChildRequest) (*models.Child, error) {
	child := &models.Child{ParentID: parentID}
	if err := s.apply(child, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create child")
	}
	return child, nil
}

// Update edits a child owned by the parent.
func (s *ChildService) Update(ctx context.Context, parentID, id string, req ChildRequest) (*models.Child, error) {
	child, err := s.owned(ctx, parentID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(child, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update child")
	}
	return child, nil
}

// Delete removes a child with no bookings.
func (s *ChildService) Delete(ctx context.Context, parentID, id string) error {
	if _, err := s.owned(ctx, parentID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "child has bookings")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete child")
	}
	return nil
}

func (s *ChildService) owned(ctx context.Context, parentID, id string) (*models.Child, error) {
	child, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}
	// Another parent's child is reported as missing.
	if child.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	return child, nil
}

func (s *ChildService) apply(child *models.Child, req ChildRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}
	child.FullName = req.FullName
	child.GradeLevel = trimOptional(req.GradeLevel)
	child.LearningGoals = trimOptional(req.LearningGoals)
	child.DateOfBirth = nil
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date_of_birth")
		}
		child.DateOfBirth = &dob
	}
	return nil
}
