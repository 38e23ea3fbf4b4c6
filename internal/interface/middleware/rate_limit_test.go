package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, max int, window time.Duration) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.POST("/limited", RateLimit(rdb, max, window, KeyByIPAndPath()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, mr
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitBlocksAboveMax(t *testing.T) {
	r, _ := newLimitedRouter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		w := hit(r, "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
	w := hit(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	r, _ := newLimitedRouter(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1").Code)

	// A different client has its own counter.
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2").Code)
}

func TestRateLimitWindowResets(t *testing.T) {
	r, mr := newLimitedRouter(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1").Code)

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/limited", RateLimit(nil, 1, time.Minute, KeyByIPAndPath()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	}
}

func TestRealIPPrefersForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	var got string
	r.GET("/", func(c *gin.Context) {
		got = ClientIP(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9", got)

	// Garbage in the header falls back to the socket address.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.1", got)
}
