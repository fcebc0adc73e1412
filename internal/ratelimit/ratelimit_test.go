package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, Burst: 3, SweepInterval: time.Minute})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("client"), "burst exhausted")
}

func TestRefillOverTime(t *testing.T) {
	// 6000 rpm = 100 tokens/second, so a short sleep refills.
	l := New(Config{RequestsPerMinute: 6000, Burst: 1, SweepInterval: time.Minute})
	defer l.Stop()

	assert.True(t, l.Allow("client"))
	assert.False(t, l.Allow("client"))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow("client"), "bucket refilled after wait")
}

func TestClientsAreIndependent(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, Burst: 1, SweepInterval: time.Minute})
	defer l.Stop()

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "second client has its own bucket")
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	l := New(Config{})
	defer l.Stop()
	assert.True(t, l.Allow("client"))
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(Config{RequestsPerMinute: 60, Burst: 1, SweepInterval: time.Minute})
	defer l.Stop()

	r := gin.New()
	r.GET("/", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
