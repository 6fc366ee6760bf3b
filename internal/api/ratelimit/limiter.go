// Package ratelimit limits requests per client IP in fixed windows.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

const (
	DefaultRequestsPerMinute = 120
	DefaultWindow            = time.Minute
)

type ipBucket struct {
	count     int
	resetTime time.Time
}

// IPLimiter allows a fixed number of requests per IP and window.
type IPLimiter struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	buckets map[string]*ipBucket
	limit   int
	window  time.Duration
}

// NewIPLimiter creates a limiter. A non-positive limit selects
// DefaultRequestsPerMinute.
func NewIPLimiter(limit int, window time.Duration, clock clockwork.Clock) *IPLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerMinute
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IPLimiter{
		clock:   clock,
		buckets: make(map[string]*ipBucket),
		limit:   limit,
		window:  window,
	}
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// Allow records a request from ip and reports whether it is within the limit.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	bucket, exists := l.buckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.buckets[ip] = &ipBucket{count: 1, resetTime: now.Add(l.window)}
		return true
	}

	if bucket.count >= l.limit {
		return false
	}
	bucket.count++
	return true
}

// Cleanup drops expired buckets.
func (l *IPLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for ip, bucket := range l.buckets {
		if now.After(bucket.resetTime) {
			delete(l.buckets, ip)
		}
	}
}

// Len returns the number of tracked IPs.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
