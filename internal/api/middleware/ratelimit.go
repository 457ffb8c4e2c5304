package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/phrazzld/lexis-api/internal/api/shared"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a user's limiter survives without requests.
const idleLimiterTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per authenticated user.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*userLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
	lastGC   time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second per user
// with the given burst. A zero rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*userLimiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Enabled reports whether requests are limited at all.
func (l *RateLimiter) Enabled() bool {
	return l != nil && l.limit > 0
}

// Allow reports whether one more request from key fits in its bucket.
func (l *RateLimiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	return l.get(key).Allow()
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	now := l.now()

	l.mu.RLock()
	entry, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// double-check after acquiring the write lock
	if entry, ok := l.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	if now.Sub(l.lastGC) > idleLimiterTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.limiters[key] = entry
	return entry.limiter
}

// size returns the number of tracked keys.
func (l *RateLimiter) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// Middleware limits requests by the authenticated user ID, falling back to
// the remote address for anonymous requests.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !l.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if userID, ok := GetUserID(r); ok {
			key = userID.String()
		}

		if !l.Allow(key) {
			logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("rate limit exceeded",
				slog.String("key", key))
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) retryAfterSeconds() int {
	secs := int(1 / float64(l.limit))
	if secs < 1 {
		return 1
	}
	return secs
}
