package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/booking-core/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter_HealthAndCORS(t *testing.T) {
	r := NewRouter(Config{JWTManager: auth.NewJWTManager("secret", time.Hour)})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/v1/bookings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRateLimiter_PerActor(t *testing.T) {
	limiter := newRateLimiter(0.001, 2)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Actor"); id != "" {
			auth.SetActor(c, auth.Actor{ID: id, Role: auth.RoleStudent})
		}
		c.Next()
	}, limiter.Middleware())
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(actor string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Actor", actor)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, call("alice"))
	assert.Equal(t, http.StatusNoContent, call("alice"))
	assert.Equal(t, http.StatusTooManyRequests, call("alice"))

	// Buckets are independent per actor.
	assert.Equal(t, http.StatusNoContent, call("bob"))
}

func (l *rateLimiter) size() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep.Store(now.UnixNano())

	for _, key := range []string{"ip:10.0.0.1", "ip:10.0.0.2", "actor:alice"} {
		limiter.getLimiter(key)
	}
	assert.Equal(t, 3, limiter.size())

	now = now.Add(limiter.idleTTL / 2)
	limiter.getLimiter("actor:alice")

	now = now.Add(limiter.idleTTL/2 + time.Second)
	limiter.getLimiter("actor:bob")

	// alice was seen within the ttl; the two anonymous buckets were not.
	assert.Equal(t, 2, limiter.size())
	_, ok := limiter.limiters.Load("ip:10.0.0.1")
	assert.False(t, ok)
	_, ok = limiter.limiters.Load("actor:alice")
	assert.True(t, ok)
}

func TestRateLimiter_DisabledWhenNoRate(t *testing.T) {
	limiter := newRateLimiter(0, 1)

	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(&logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"path":"/ok"`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"status":500`)
}
