package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestIPLimiter_Allow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewIPLimiter(2, time.Minute, clock)

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "limits are per IP")

	clock.Advance(time.Minute + time.Second)
	assert.True(t, l.Allow("1.1.1.1"), "window reset")
}

func TestIPLimiter_Cleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewIPLimiter(5, time.Minute, clock)

	l.Allow("1.1.1.1")
	clock.Advance(30 * time.Second)
	l.Allow("2.2.2.2")
	clock.Advance(31 * time.Second)

	l.Cleanup()
	assert.Equal(t, 1, l.Len())
}

func TestIPLimiter_Middleware(t *testing.T) {
	l := NewIPLimiter(1, time.Minute, clockwork.NewFakeClock())
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, l.Middleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewIPLimiter_Defaults(t *testing.T) {
	l := NewIPLimiter(0, 0, nil)
	assert.Equal(t, DefaultRequestsPerMinute, l.limit)
	assert.Equal(t, DefaultWindow, l.window)
}
