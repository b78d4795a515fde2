package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/handler"
	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/pkg/config"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type fixedTokens map[string]*models.JWTClaims

func (f fixedTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}
	tokens := fixedTokens{
		"parent": {UserID: "p1", Role: models.RoleParent},
		"tutor":  {UserID: "t1", Role: models.RoleTutor},
	}
	h := handlers{
		auth:         handler.NewAuthHandler(nil),
		users:        handler.NewUserHandler(nil),
		tutors:       handler.NewTutorHandler(nil),
		courses:      handler.NewCourseHandler(nil),
		availability: handler.NewAvailabilityHandler(nil),
		children:     handler.NewChildHandler(nil),
		bookings:     handler.NewBookingHandler(nil),
		sessions:     handler.NewSessionHandler(nil),
		reviews:      handler.NewReviewHandler(nil),
		payments:     handler.NewPaymentHandler(nil, nil),
		refunds:      handler.NewRefundHandler(nil),
		metrics:      handler.NewMetricsHandler(nil, nil),
	}
	return newRouter(cfg, h, routerDeps{tokens: tokens}, zap.NewNop())
}

func do(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouterHealth(t *testing.T) {
	r := testRouter()
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", ""))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/docs/index.html", ""))
}

func TestRouterEnforcesRoles(t *testing.T) {
	r := testRouter()

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/bookings", ""))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/bookings", "tutor"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/users", "parent"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/refunds/statistics", "parent"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPut, "/api/v1/tutors/me/availability", "parent"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/courses", "parent"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/payouts/connect", "parent"))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/sessions", "expired"))
}
