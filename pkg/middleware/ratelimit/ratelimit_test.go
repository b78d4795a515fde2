package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// scripterStub counts per key in memory and mimics the Lua script result.
type scripterStub struct {
	counts map[string]int64
	err    error
}

func (s *scripterStub) result(keys []string) *redis.Cmd {
	cmd := redis.NewCmd(context.Background())
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	s.counts[keys[0]]++
	cmd.SetVal(s.counts[keys[0]])
	return cmd
}

func (s *scripterStub) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.result(keys)
}

func (s *scripterStub) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.result(keys)
}

func (s *scripterStub) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.result(keys)
}

func (s *scripterStub) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.result(keys)
}

func (s *scripterStub) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (s *scripterStub) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func newRouter(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/bookings/trial", l.Middleware("booking", nil), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestLimiterRejectsAfterLimit(t *testing.T) {
	l := New(&scripterStub{counts: map[string]int64{}}, 2, time.Minute, "rl", true, nil)
	r := newRouter(l)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings/trial", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestLimiterFailOpenAndClosed(t *testing.T) {
	broken := &scripterStub{err: errors.New("connection refused")}

	w := httptest.NewRecorder()
	newRouter(New(broken, 1, time.Minute, "", true, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings/trial", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	newRouter(New(broken, 1, time.Minute, "", false, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings/trial", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
