package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"users-api/backend/internal/httpx"
)

// RateLimiter is a fixed-window per-key counter. It is in-memory and
// per-process; a restart resets all windows, which is acceptable for a login
// throttle.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*windowEntry
	now     func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter returns a limiter allowing max hits per key per window.
// max <= 0 disables the limiter (Allow always succeeds).
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
// When the limit is exceeded it also returns the time until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	if l.max <= 0 {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		// Opportunistic cleanup: drop other stale windows while we hold the lock.
		for k, old := range l.entries {
			if now.After(old.resetAt) {
				delete(l.entries, k)
			}
		}
		return true, 0
	}
	e.count++
	if e.count > l.max {
		return false, e.resetAt.Sub(now)
	}
	return true, 0
}

// LimitByIP throttles requests per client IP, answering 429 with a
// Retry-After header once the window is exhausted.
func LimitByIP(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := limiter.Allow(clientIP(r))
			if !ok {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
				}
				httpx.WriteMessage(w, http.StatusTooManyRequests, "too many login attempts, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
