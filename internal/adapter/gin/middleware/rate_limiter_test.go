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
	"go.uber.org/zap/zaptest"
)

func setupLimitedRouter(t *testing.T, client *redis.Client, cfg RateLimiterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_UnderLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := setupLimitedRouter(t, client, RateLimiterConfig{
		RequestsPerSecond: 5,
		WindowSeconds:     1,
		Enabled:           true,
	})

	for i := 0; i < 5; i++ {
		w := doGet(r, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_OverLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := setupLimitedRouter(t, client, RateLimiterConfig{
		RequestsPerSecond: 2,
		WindowSeconds:     1,
		Enabled:           true,
	})

	for i := 0; i < 2; i++ {
		w := doGet(r, "/ping")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doGet(r, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := setupLimitedRouter(t, client, RateLimiterConfig{
		RequestsPerSecond: 1,
		WindowSeconds:     1,
		Enabled:           true,
	})

	require.Equal(t, http.StatusOK, doGet(r, "/ping").Code)
	require.Equal(t, http.StatusTooManyRequests, doGet(r, "/ping").Code)

	mr.FastForward(2 * time.Second)

	assert.Equal(t, http.StatusOK, doGet(r, "/ping").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := setupLimitedRouter(t, client, RateLimiterConfig{
		RequestsPerSecond: 1,
		WindowSeconds:     1,
		Enabled:           false,
	})

	for i := 0; i < 10; i++ {
		w := doGet(r, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_RedisDownFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := setupLimitedRouter(t, client, RateLimiterConfig{
		RequestsPerSecond: 1,
		WindowSeconds:     1,
		Enabled:           true,
	})

	mr.Close()

	for i := 0; i < 5; i++ {
		w := doGet(r, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
