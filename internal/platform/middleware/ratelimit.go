package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// DefaultRateLimitIdleTTL is how long an unused client bucket is kept.
const DefaultRateLimitIdleTTL = 10 * time.Minute

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL evicts buckets not used for this long. Zero means
	// DefaultRateLimitIdleTTL.
	IdleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// limiterStore holds one token bucket per client key. Idle buckets are swept
// at most once per IdleTTL, on the path that creates new buckets.
type limiterStore struct {
	mu        sync.RWMutex
	entries   map[string]*limiterEntry
	config    RateLimitConfig
	now       func() time.Time
	lastSweep time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitIdleTTL
	}
	return &limiterStore{
		entries:   make(map[string]*limiterEntry),
		config:    cfg,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		e.lastSeen.Store(now.UnixNano())
		return e.limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) >= s.config.IdleTTL {
		s.sweep(now)
	}
	if e, ok := s.entries[key]; ok {
		e.lastSeen.Store(now.UnixNano())
		return e.limiter
	}
	e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.BurstSize)}
	e.lastSeen.Store(now.UnixNano())
	s.entries[key] = e
	return e.limiter
}

// sweep drops buckets idle for longer than IdleTTL. Caller holds mu.
func (s *limiterStore) sweep(now time.Time) {
	cutoff := now.Add(-s.config.IdleTTL).UnixNano()
	for k, e := range s.entries {
		if e.lastSeen.Load() < cutoff {
			delete(s.entries, k)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RateLimit throttles each client, keyed by authenticated user when known
// and by remote IP otherwise.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
				key = "user:" + uid
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			r := store.get(key).Reserve()
			if delay := r.Delay(); !r.OK() || delay > 0 {
				r.Cancel()
				retry := int(math.Ceil(delay.Seconds()))
				if retry < 1 {
					retry = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
