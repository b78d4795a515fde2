package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SetActiveRequest toggles an account on or off.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UserService handles admin user management.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// SetActive activates or deactivates an account. Deactivation also revokes
// every outstanding refresh token so existing sessions cannot be renewed.
func (s *UserService) SetActive(ctx context.Context, id string, active bool, actorID string, meta models.LoginRequest) (*models.User, error) {
	found, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	action := models.AuditActionUserActivate
	if !active {
		action = models.AuditActionUserDeactivate
		if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke tokens for deactivated user", zap.String("user_id", id), zap.Error(err))
		}
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "user",
		ResourceID: &id,
		NewValues:  []byte(fmt.Sprintf(`{"active":%t}`, active)),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.Error(err))
	}

	return s.Get(ctx, id)
}
