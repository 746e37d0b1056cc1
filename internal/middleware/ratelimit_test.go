package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_Reserve(t *testing.T) {
	limiter := NewIPRateLimiter(60, 2)
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ok, _ := limiter.Reserve("203.0.113.1")
	assert.True(t, ok)
	ok, _ = limiter.Reserve("203.0.113.1")
	assert.True(t, ok)

	ok, wait := limiter.Reserve("203.0.113.1")
	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	// Other clients have their own bucket
	ok, _ = limiter.Reserve("203.0.113.2")
	assert.True(t, ok)

	// A rejected request does not consume the next token
	now = now.Add(time.Second)
	ok, _ = limiter.Reserve("203.0.113.1")
	assert.True(t, ok)
}

func TestIPRateLimiter_SweepsIdleVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(60, 1)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.Reserve("203.0.113.1")
	require.Len(t, limiter.visitors, 1)

	now = now.Add(2 * idleVisitorTTL)
	limiter.Reserve("203.0.113.2")

	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "203.0.113.2")
}

func TestRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewIPRateLimiter(1, 1)
	var limited int
	router := gin.New()
	router.POST("/login", RateLimit(limiter, func(c *gin.Context, retryAfter time.Time) {
		limited++
	}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, 1, limited)
}
