package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

type recordingObserver struct {
	paths []string
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, path)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRoles(t *testing.T) {
	r := gin.New()
	validator := stubValidator{claims: &models.JWTClaims{UserID: "t1", Role: models.RoleTutor}}
	r.GET("/tutor", JWT(validator), RequireRoles(models.RoleTutor), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentClaims(c).UserID)
	})
	r.GET("/admin", JWT(validator), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/tutor", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/tutor", "bad").Code)

	rec := serve(r, http.MethodGet, "/tutor", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "good").Code)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	audit := &recordingAudit{}
	validator := stubValidator{claims: &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}}
	r := gin.New()
	r.PUT("/refunds/:id/process", JWT(validator), Audit(audit, nil, models.AuditActionRefundProcess, "refund_request"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.PUT("/fail/:id", JWT(validator), Audit(audit, nil, "X", "y"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	serve(r, http.MethodPut, "/refunds/rf1/process", "good")
	serve(r, http.MethodPut, "/fail/rf1", "good")

	require.Len(t, audit.logs, 1)
	entry := audit.logs[0]
	assert.Equal(t, models.AuditActionRefundProcess, entry.Action)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "rf1", *entry.ResourceID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin-1", *entry.UserID)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/tutors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/tutors/abc", "")
	serve(r, http.MethodGet, "/nope", "")

	assert.Equal(t, []string{"/tutors/:id", "unmatched"}, observer.paths)
}

func TestSetCacheHitWritesHeaderAndMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := serve(r, http.MethodGet, "/cached", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `"cache_hit":true`)
}
