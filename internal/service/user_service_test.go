package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	listUsers []models.User
	listCount int
	listErr   error
	revoked   []string
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listUsers, m.listCount, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	user, ok := m.users[id]
	if !ok {
		return false, nil
	}
	user.Active = active
	return true, nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserServiceListNormalisesPagination(t *testing.T) {
	repo := &mockUserRepo{listUsers: []models.User{{ID: "u1"}}, listCount: 41}
	svc := NewUserService(repo, zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 41, pagination.TotalCount)
}

func TestUserServiceListError(t *testing.T) {
	svc := NewUserService(&mockUserRepo{listErr: errors.New("boom")}, nil)

	_, _, err := svc.List(context.Background(), models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeactivateRevokesTokens(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Active: true, Role: models.RoleParent}}}
	svc := NewUserService(repo, zap.NewNop())

	user, err := svc.SetActive(context.Background(), "u1", false, "admin", models.LoginRequest{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, []string{"u1"}, repo.revoked)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDeactivate, repo.auditLogs[0].Action)
	assert.JSONEq(t, `{"active":false}`, string(repo.auditLogs[0].NewValues))
}

func TestUserServiceActivateKeepsTokens(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := NewUserService(repo, zap.NewNop())

	_, err := svc.SetActive(context.Background(), "u1", true, "admin", models.LoginRequest{})
	require.NoError(t, err)
	assert.Empty(t, repo.revoked)
	assert.Equal(t, models.AuditActionUserActivate, repo.auditLogs[0].Action)
}

func TestUserServiceSetActiveMissingUser(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, nil)

	_, err := svc.SetActive(context.Background(), "ghost", false, "admin", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
