package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/middleware"
	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

// actorFromContext writes a 401 and returns false when no verified claims are present.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	return service.ActorFromClaims(claims), true
}

func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be a number")
	}
	return &v, nil
}

func optionalBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// optionalTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func optionalTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
