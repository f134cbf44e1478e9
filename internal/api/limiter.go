package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/campushub/booking-core/internal/auth"
)

const defaultLimiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// rateLimiter keeps one token bucket per actor (or client IP when the
// request is anonymous). Buckets idle for longer than idleTTL are dropped
// during the next sweep, which piggybacks on incoming requests.
type rateLimiter struct {
	limiters  sync.Map
	rps       float64
	burst     int
	idleTTL   time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 5
	}
	l := &rateLimiter{rps: rps, burst: burst, idleTTL: defaultLimiterIdleTTL, now: time.Now}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	now := l.now().UnixNano()
	l.maybeSweep(now)

	if v, ok := l.limiters.Load(key); ok {
		e := v.(*limiterEntry)
		e.lastSeen.Store(now)
		return e.lim
	}

	e := &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
	e.lastSeen.Store(now)
	actual, loaded := l.limiters.LoadOrStore(key, e)
	if loaded {
		e = actual.(*limiterEntry)
		e.lastSeen.Store(now)
	}
	return e.lim
}

// maybeSweep evicts idle buckets at most once per idleTTL.
func (l *rateLimiter) maybeSweep(now int64) {
	last := l.lastSweep.Load()
	ttl := l.idleTTL.Nanoseconds()
	if now-last < ttl || !l.lastSweep.CompareAndSwap(last, now) {
		return
	}

	l.limiters.Range(func(key, v any) bool {
		if now-v.(*limiterEntry).lastSeen.Load() >= ttl {
			l.limiters.Delete(key)
		}
		return true
	})
}

// Middleware rejects requests over the limit with 429. It MUST run after
// auth.AuthRequired to key by actor. A non-positive rps disables it.
func (l *rateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.rps <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if actor, ok := auth.GetActor(c); ok {
			key = "actor:" + actor.ID
		}

		if !l.getLimiter(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
